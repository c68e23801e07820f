package custody

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	amino "github.com/tendermint/go-amino"
)

// cdc serializes all entities of this package. There is no protobuf
// generation step in this repository, so the types below are written by hand
// and rely on amino reflection for a deterministic binary form.
var cdc = amino.NewCodec()

// Escrow is the state of a single deposit held in custody. It is created
// once, mutated only by recorded approvals and deleted when the funds leave
// custody through a release or a refund.
type Escrow struct {
	Metadata *weave.Metadata
	// Depositor is the original funder. Refunded funds return here.
	Depositor weave.Address
	// Beneficiary receives the funds once enough officials approved.
	Beneficiary weave.Address
	// Officials is the fixed set of identities authorized to approve.
	Officials []weave.Address
	// Approvals is the accumulated subset of officials that endorsed the
	// release so far. It only ever grows.
	Approvals []weave.Address
	// Required is the approval threshold for a release.
	Required int32
	// Deadline is the instant after which refund eligibility begins and
	// approval/release eligibility ends.
	Deadline weave.UnixTime
	Memo     string
	// Address of the account holding the escrowed funds.
	Address weave.Address
}

func (e *Escrow) GetMetadata() *weave.Metadata {
	return e.Metadata
}

func (e *Escrow) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(e)
}

func (e *Escrow) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, e)
}

// CreateMsg locks funds under a new escrow.
type CreateMsg struct {
	Metadata *weave.Metadata
	// Source is the depositor. If not set, the main transaction signer is
	// used.
	Source      weave.Address
	Beneficiary weave.Address
	Officials   []weave.Address
	Required    int32
	Amount      coin.Coins
	Deadline    weave.UnixTime
	Memo        string
}

func (m *CreateMsg) GetMetadata() *weave.Metadata {
	return m.Metadata
}

func (m *CreateMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ApproveMsg records one official's endorsement of the release. The acting
// official is the transaction signer, not a message field.
type ApproveMsg struct {
	Metadata *weave.Metadata
	EscrowId []byte
}

func (m *ApproveMsg) GetMetadata() *weave.Metadata {
	return m.Metadata
}

func (m *ApproveMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ApproveMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ReleaseMsg pays the full escrow balance out to the beneficiary.
type ReleaseMsg struct {
	Metadata *weave.Metadata
	EscrowId []byte
}

func (m *ReleaseMsg) GetMetadata() *weave.Metadata {
	return m.Metadata
}

func (m *ReleaseMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ReleaseMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ReturnMsg refunds the full escrow balance back to the depositor.
type ReturnMsg struct {
	Metadata *weave.Metadata
	EscrowId []byte
}

func (m *ReturnMsg) GetMetadata() *weave.Metadata {
	return m.Metadata
}

func (m *ReturnMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ReturnMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

package custody

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &Escrow{}, migration.NoModification)
}

var _ orm.CloneableData = (*Escrow)(nil)

// Validate ensures the escrow holds its structural invariants.
func (e *Escrow) Validate() error {
	if err := e.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := e.Depositor.Validate(); err != nil {
		return errors.Wrap(err, "depositor")
	}
	if err := e.Beneficiary.Validate(); err != nil {
		return errors.Wrap(err, "beneficiary")
	}
	if err := validateOfficials(e.Officials); err != nil {
		return err
	}
	if e.Required < 0 || int(e.Required) > len(e.Officials) {
		return errors.Wrapf(ErrInvalidConfiguration,
			"%d approvals required but %d officials declared", e.Required, len(e.Officials))
	}
	if err := validateApprovals(e.Approvals, e.Officials); err != nil {
		return err
	}
	if e.Deadline == 0 {
		// Zero deadline is a valid value that dates to 1970-01-01. We
		// know that this value is in the past and makes no sense. Most
		// likely value was not provided and a zero value remained.
		return errors.Wrap(errors.ErrInput, "deadline is required")
	}
	if err := e.Deadline.Validate(); err != nil {
		return errors.Wrap(err, "invalid deadline value")
	}
	if len(e.Memo) > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo %s", e.Memo)
	}
	if err := e.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	return nil
}

// Copy makes a deep copy of the escrow so that recording an approval on the
// copy never mutates the stored original.
func (e *Escrow) Copy() orm.CloneableData {
	return &Escrow{
		Metadata:    e.Metadata.Copy(),
		Depositor:   e.Depositor,
		Beneficiary: e.Beneficiary,
		Officials:   copyAddrs(e.Officials),
		Approvals:   copyAddrs(e.Approvals),
		Required:    e.Required,
		Deadline:    e.Deadline,
		Memo:        e.Memo,
		Address:     e.Address.Clone(),
	}
}

func copyAddrs(addrs []weave.Address) []weave.Address {
	if addrs == nil {
		return nil
	}
	cpy := make([]weave.Address, len(addrs))
	copy(cpy, addrs)
	return cpy
}

// NewEscrow builds and validates an escrow with no approvals recorded. This
// is the only constructor. The threshold must be within 0..len(officials),
// otherwise ErrInvalidConfiguration is returned and no escrow exists.
func NewEscrow(
	id []byte,
	depositor weave.Address,
	beneficiary weave.Address,
	officials []weave.Address,
	required int32,
	deadline weave.UnixTime,
	memo string,
) (*Escrow, error) {
	esc := &Escrow{
		Metadata:    &weave.Metadata{Schema: 1},
		Depositor:   depositor,
		Beneficiary: beneficiary,
		Officials:   officials,
		Required:    required,
		Deadline:    deadline,
		Memo:        memo,
		Address:     Condition(id).Address(),
	}
	if err := esc.Validate(); err != nil {
		return nil, err
	}
	return esc, nil
}

// AsEscrow extracts an *Escrow value or nil from the object
// Must be called on a Bucket result that is an *Escrow,
// will panic on bad type.
func AsEscrow(obj orm.Object) *Escrow {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Escrow)
}

// Condition calculates the address of an escrow given the key.
func Condition(key []byte) weave.Condition {
	return weave.NewCondition("custody", "seq", key)
}

func NewBucket() orm.ModelBucket {
	b := orm.NewModelBucket("csty", &Escrow{},
		orm.WithIDSequence(escrowSeq),
		orm.WithIndex("depositor", idxDepositor, false),
		orm.WithIndex("beneficiary", idxBeneficiary, false),
	)
	return migration.NewModelBucket("custody", b)
}

var escrowSeq = orm.NewSequence("custody", "id")

func toEscrow(obj orm.Object) (*Escrow, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "Cannot take index of nil")
	}
	esc, ok := obj.Value().(*Escrow)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "Can only take index of Escrow")
	}
	return esc, nil
}

func idxDepositor(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	return esc.Depositor, nil
}

func idxBeneficiary(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	return esc.Beneficiary, nil
}

// validateOfficials ensures every official address is well formed and that no
// identity is declared twice. An empty set is allowed; together with a zero
// threshold it describes an escrow that can be released right away.
func validateOfficials(officials []weave.Address) error {
	if len(officials) > maxOfficialsAllowed {
		return errors.Wrapf(errors.ErrModel, "more than %d officials", maxOfficialsAllowed)
	}
	seen := make(map[string]struct{}, len(officials))
	for _, o := range officials {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "official %s", o)
		}
		if _, ok := seen[string(o)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "official %s", o)
		}
		seen[string(o)] = struct{}{}
	}
	return nil
}

// validateApprovals ensures recorded approvals are a duplicate free subset of
// the officials.
func validateApprovals(approvals, officials []weave.Address) error {
	seen := make(map[string]struct{}, len(approvals))
	for _, a := range approvals {
		if _, ok := seen[string(a)]; ok {
			return errors.Wrapf(ErrDuplicateApproval, "approval %s", a)
		}
		seen[string(a)] = struct{}{}
		if !isOfficial(officials, a) {
			return errors.Wrapf(ErrUnauthorizedApprover, "approval %s", a)
		}
	}
	return nil
}

func isOfficial(officials []weave.Address, addr weave.Address) bool {
	for _, o := range officials {
		if o.Equals(addr) {
			return true
		}
	}
	return false
}

package custody

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &CreateMsg{}, migration.NoModification)
	migration.MustRegister(1, &ApproveMsg{}, migration.NoModification)
	migration.MustRegister(1, &ReleaseMsg{}, migration.NoModification)
	migration.MustRegister(1, &ReturnMsg{}, migration.NoModification)
}

const (
	pathCreateMsg  = "custody/create"
	pathApproveMsg = "custody/approve"
	pathReleaseMsg = "custody/release"
	pathReturnMsg  = "custody/return"

	maxMemoSize int = 128

	// To avoid burning CPU, this is the maximum number of officials
	// allowed on a single escrow.
	maxOfficialsAllowed = 100
)

var _ weave.Msg = (*CreateMsg)(nil)
var _ weave.Msg = (*ApproveMsg)(nil)
var _ weave.Msg = (*ReleaseMsg)(nil)
var _ weave.Msg = (*ReturnMsg)(nil)

// Path fulfills weave.Msg interface to allow routing
func (CreateMsg) Path() string {
	return pathCreateMsg
}

// Path fulfills weave.Msg interface to allow routing
func (ApproveMsg) Path() string {
	return pathApproveMsg
}

// Path fulfills weave.Msg interface to allow routing
func (ReleaseMsg) Path() string {
	return pathReleaseMsg
}

// Path fulfills weave.Msg interface to allow routing
func (ReturnMsg) Path() string {
	return pathReturnMsg
}

// Validate makes sure that this is sensible.
func (m *CreateMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Beneficiary == nil {
		return errors.Wrap(errors.ErrEmpty, "beneficiary")
	}
	if err := m.Beneficiary.Validate(); err != nil {
		return errors.Wrap(err, "beneficiary")
	}
	if m.Source != nil {
		if err := m.Source.Validate(); err != nil {
			return errors.Wrap(err, "source")
		}
	}
	if err := validateOfficials(m.Officials); err != nil {
		return err
	}
	if m.Required < 0 || int(m.Required) > len(m.Officials) {
		return errors.Wrapf(ErrInvalidConfiguration,
			"%d approvals required but %d officials declared", m.Required, len(m.Officials))
	}
	if m.Deadline == 0 {
		// Zero deadline is a valid value that dates to 1970-01-01. We
		// know that this value is in the past and makes no sense. Most
		// likely value was not provided and a zero value remained.
		return errors.Wrap(errors.ErrInput, "deadline is required")
	}
	if err := m.Deadline.Validate(); err != nil {
		return errors.Wrap(err, "invalid deadline value")
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo %s", m.Memo)
	}
	return validateAmount(m.Amount)
}

// Validate makes sure that this is sensible.
func (m *ApproveMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateEscrowID(m.EscrowId)
}

// Validate makes sure that this is sensible.
func (m *ReleaseMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateEscrowID(m.EscrowId)
}

// Validate makes sure that this is sensible.
func (m *ReturnMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateEscrowID(m.EscrowId)
}

// validateAmount makes sure the amount is positive and the coins are of
// valid format.
func validateAmount(amount coin.Coins) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %#v", &amount)
	}
	return amount.Validate()
}

func validateEscrowID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "escrow id: %X", id)
	}
	return nil
}

package custody

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/x"
)

// TxInfo is the authenticated context a transition is decided against: the
// set of verified signer addresses and the transaction validity window. Both
// window bounds are inclusive. The signer set is trusted as-is, the sigs
// decorator already verified the cryptography.
type TxInfo struct {
	Signers    []weave.Address
	ValidFrom  weave.UnixTime
	ValidUntil weave.UnixTime
}

// NewTxInfo extracts the decision context from a weave request. The validity
// window of an on-chain submission is the single instant of the block time.
//
// This function panics if the block time is not present in the context. This
// must never happen. The panic is here to prevent a broken setup from
// processing data incorrectly.
func NewTxInfo(ctx weave.Context, auth x.Authenticator) TxInfo {
	now, err := weave.BlockTime(ctx)
	if err != nil {
		panic("block time is not present")
	}
	at := weave.AsUnixTime(now)
	return TxInfo{
		Signers:    x.GetAddresses(ctx, auth),
		ValidFrom:  at,
		ValidUntil: at,
	}
}

// Before returns true iff the whole validity window lies strictly before the
// deadline.
func (t TxInfo) Before(deadline weave.UnixTime) bool {
	return t.ValidUntil < deadline
}

// After returns true iff the whole validity window lies at or after the
// deadline. Before and After are mutually exclusive. A window straddling the
// deadline satisfies neither and blocks every transition, forcing the caller
// to resubmit within an unambiguous window.
func (t TxInfo) After(deadline weave.UnixTime) bool {
	return t.ValidFrom >= deadline
}

// SignedBy returns true iff the given address is among the transaction
// signers.
func (t TxInfo) SignedBy(addr weave.Address) bool {
	for _, s := range t.Signers {
		if addr.Equals(s) {
			return true
		}
	}
	return false
}

// Decision is an admitted transition outcome.
type Decision struct {
	// State is the successor escrow. Set only when the instance stays
	// open (an approval was recorded).
	State *Escrow
	// Terminal is set when the decision closes the instance and the full
	// balance leaves custody.
	Terminal bool
	// Payout is the address receiving the balance of a terminal decision.
	Payout weave.Address
}

// Decide is the single decision entry point. Given the current escrow state,
// a requested transition and the transaction context it returns the admitted
// outcome, or the rejection reason. It is a pure function: no clock, no
// store, no side effects. Every input combination yields a deterministic
// result.
func Decide(esc *Escrow, msg weave.Msg, info TxInfo) (*Decision, error) {
	switch msg.(type) {
	case *ApproveMsg:
		return decideApprove(esc, info)
	case *ReleaseMsg:
		return decideRelease(esc, info)
	case *ReturnMsg:
		return decideReturn(esc, info)
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "no transition for %T", msg)
	}
}

// decideApprove admits an approval when the window is before the deadline,
// the transaction carries exactly one signer and that signer is an official
// that did not approve yet.
func decideApprove(esc *Escrow, info TxInfo) (*Decision, error) {
	if !info.Before(esc.Deadline) {
		return nil, errors.Wrapf(ErrDeadlinePassed, "deadline %s", esc.Deadline)
	}
	if n := len(info.Signers); n != 1 {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "approval requires exactly one signer, got %d", n)
	}
	next, err := applyApproval(esc, info.Signers[0])
	if err != nil {
		return nil, err
	}
	return &Decision{State: next}, nil
}

// decideRelease admits a release when the window is before the deadline, the
// approval threshold is met and the beneficiary signed. A zero threshold
// makes a release admissible right after creation.
func decideRelease(esc *Escrow, info TxInfo) (*Decision, error) {
	if !info.Before(esc.Deadline) {
		return nil, errors.Wrapf(ErrDeadlinePassed, "deadline %s", esc.Deadline)
	}
	if len(esc.Approvals) < int(esc.Required) {
		return nil, errors.Wrapf(ErrInsufficientApprovals, "%d of %d", len(esc.Approvals), esc.Required)
	}
	if !info.SignedBy(esc.Beneficiary) {
		return nil, errors.Wrap(ErrMissingSignature, "beneficiary")
	}
	return &Decision{Terminal: true, Payout: esc.Beneficiary}, nil
}

// decideReturn admits a refund when the window is at or after the deadline,
// the approval threshold is not met and the depositor signed. Once enough
// approvals exist the refund stays blocked even past the deadline, release
// is then the only valid terminal path.
func decideReturn(esc *Escrow, info TxInfo) (*Decision, error) {
	if !info.After(esc.Deadline) {
		return nil, errors.Wrapf(ErrDeadlineNotReached, "deadline %s", esc.Deadline)
	}
	if len(esc.Approvals) >= int(esc.Required) {
		return nil, errors.Wrapf(ErrApprovalsSufficient, "%d of %d", len(esc.Approvals), esc.Required)
	}
	if !info.SignedBy(esc.Depositor) {
		return nil, errors.Wrap(ErrMissingSignature, "depositor")
	}
	return &Decision{Terminal: true, Payout: esc.Depositor}, nil
}

// canApprove returns no error iff the given identity is an official that has
// not approved yet.
func canApprove(esc *Escrow, signer weave.Address) error {
	if !isOfficial(esc.Officials, signer) {
		return errors.Wrapf(ErrUnauthorizedApprover, "%s", signer)
	}
	for _, a := range esc.Approvals {
		if a.Equals(signer) {
			return errors.Wrapf(ErrDuplicateApproval, "%s", signer)
		}
	}
	return nil
}

// applyApproval returns a copy of the escrow with the signer's approval
// appended. Calling it with a signer that cannot approve is an error, never
// a silent no-op.
func applyApproval(esc *Escrow, signer weave.Address) (*Escrow, error) {
	if err := canApprove(esc, signer); err != nil {
		return nil, err
	}
	next := esc.Copy().(*Escrow)
	next.Approvals = append(next.Approvals, signer)
	return next, nil
}

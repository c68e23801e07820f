package custody

import (
	"github.com/iov-one/weave/errors"
)

// Error codes 1200-1299 are reserved for the custody extension. Every
// rejection a transition can produce maps to exactly one of those roots so
// that callers can tell a timing failure (retry later) from an authorization
// failure (never going to succeed).
var (
	// ErrDeadlinePassed is returned when an approval or a release is
	// attempted in a window that does not lie entirely before the
	// deadline.
	ErrDeadlinePassed = errors.Register(1200, "deadline passed")

	// ErrDeadlineNotReached is returned when a refund is attempted in a
	// window that does not lie entirely at or after the deadline.
	ErrDeadlineNotReached = errors.Register(1201, "deadline not reached")

	// ErrInsufficientApprovals rejects a release below the threshold.
	ErrInsufficientApprovals = errors.Register(1202, "insufficient approvals")

	// ErrApprovalsSufficient rejects a refund once the threshold is met.
	// After that point release is the only valid terminal path.
	ErrApprovalsSufficient = errors.Register(1203, "approvals already sufficient")

	// ErrMissingSignature is returned when the required party
	// (beneficiary or depositor) did not sign the transaction.
	ErrMissingSignature = errors.Register(1204, "required signature missing")

	// ErrUnauthorizedApprover is returned when the signer of an approval
	// is not one of the officials.
	ErrUnauthorizedApprover = errors.Register(1205, "signer is not an official")

	// ErrDuplicateApproval is returned when an official approves twice.
	ErrDuplicateApproval = errors.Register(1206, "official already approved")

	// ErrInvalidConfiguration is returned when an escrow is declared with
	// a threshold outside of the 0..len(officials) range. No escrow is
	// ever created from such a declaration.
	ErrInvalidConfiguration = errors.Register(1207, "invalid escrow configuration")
)

package custody

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
	"github.com/iov-one/weave/x/cash"
)

const (
	// pay escrow cost up-front
	createCost  int64 = 300
	approveCost int64 = 50
	releaseCost int64 = 0
	returnCost  int64 = 0
)

// RegisterRoutes will instantiate and register
// all handlers in this package.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, cashctrl cash.Controller) {
	r = migration.SchemaMigratingRegistry("custody", r)
	bucket := NewBucket()

	r.Handle(&CreateMsg{}, CreateEscrowHandler{auth, bucket, cashctrl})
	r.Handle(&ApproveMsg{}, ApproveHandler{auth, bucket})
	r.Handle(&ReleaseMsg{}, ReleaseHandler{auth, bucket, cashctrl})
	r.Handle(&ReturnMsg{}, ReturnHandler{auth, bucket, cashctrl})
}

// RegisterQuery will register this bucket as "/escrows".
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("escrows", qr)
}

// CreateEscrowHandler locks funds under a newly declared escrow.
type CreateEscrowHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	bank   cash.CoinMover
}

var _ weave.Handler = CreateEscrowHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h CreateEscrowHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	_, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	res := &weave.CheckResult{
		GasAllocated: createCost,
	}
	return res, nil
}

// Deliver moves the tokens from the depositor to the escrow account if all
// preconditions are met.
func (h CreateEscrowHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// apply a default for the depositor
	depositor := msg.Source
	if depositor == nil {
		depositor = x.MainSigner(ctx, h.auth).Address()
	}

	key, err := escrowSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire key")
	}

	escrow, err := NewEscrow(key, depositor, msg.Beneficiary, msg.Officials, msg.Required, msg.Deadline, msg.Memo)
	if err != nil {
		return nil, err
	}
	if _, err := h.bucket.Put(db, key, escrow); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}

	// Deposit to the escrow account.
	if err := cash.MoveCoins(db, h.bank, escrow.Depositor, escrow.Address, msg.Amount); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Data: key}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CreateEscrowHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateMsg, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	// A deadline already in the past is allowed. Such an escrow can never
	// collect approvals and is refundable right away.

	// The depositor must authorize this (if not set, defaults to the main
	// signer).
	if msg.Source != nil {
		if !h.auth.HasAddress(ctx, msg.Source) {
			return nil, errors.ErrUnauthorized
		}
	}

	return &msg, nil
}

// ApproveHandler records one official's endorsement of the release.
type ApproveHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ weave.Handler = ApproveHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h ApproveHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	_, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	return &weave.CheckResult{GasAllocated: approveCost}, nil
}

// Deliver persists the successor state with the approval appended. The
// escrow stays open.
func (h ApproveHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, dec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if _, err := h.bucket.Put(db, msg.EscrowId, dec.State); err != nil {
		return nil, errors.Wrap(err, "cannot save escrow")
	}
	return &weave.DeliverResult{Data: msg.EscrowId}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ApproveHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ApproveMsg, *Decision, error) {
	var msg ApproveMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	var escrow Escrow
	if err := h.bucket.One(db, msg.EscrowId, &escrow); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load escrow from the store")
	}

	dec, err := Decide(&escrow, &msg, NewTxInfo(ctx, h.auth))
	if err != nil {
		return nil, nil, err
	}
	return &msg, dec, nil
}

// ReleaseHandler pays the full escrow balance out to the beneficiary once
// the approval threshold is met.
type ReleaseHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	bank   cash.Controller
}

var _ weave.Handler = ReleaseHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h ReleaseHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	_, _, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	return &weave.CheckResult{GasAllocated: releaseCost}, nil
}

// Deliver moves all tokens from the escrow account to the beneficiary and
// deletes the escrow. The instance is terminal afterwards.
func (h ReleaseHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, escrow, dec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := closeEscrow(db, h.bank, h.bucket, msg.EscrowId, escrow, dec.Payout); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ReleaseHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ReleaseMsg, *Escrow, *Decision, error) {
	var msg ReleaseMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var escrow Escrow
	if err := h.bucket.One(db, msg.EscrowId, &escrow); err != nil {
		return nil, nil, nil, errors.Wrap(err, "cannot load escrow from the store")
	}

	dec, err := Decide(&escrow, &msg, NewTxInfo(ctx, h.auth))
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, &escrow, dec, nil
}

// ReturnHandler refunds the full escrow balance back to the depositor after
// the deadline, as long as the approval threshold was not met.
type ReturnHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	bank   cash.Controller
}

var _ weave.Handler = ReturnHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h ReturnHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	_, _, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	return &weave.CheckResult{GasAllocated: returnCost}, nil
}

// Deliver moves all tokens from the escrow account back to the depositor and
// deletes the escrow. The instance is terminal afterwards.
func (h ReturnHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, escrow, dec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := closeEscrow(db, h.bank, h.bucket, msg.EscrowId, escrow, dec.Payout); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ReturnHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ReturnMsg, *Escrow, *Decision, error) {
	var msg ReturnMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var escrow Escrow
	if err := h.bucket.One(db, msg.EscrowId, &escrow); err != nil {
		return nil, nil, nil, errors.Wrap(err, "cannot load escrow from the store")
	}

	dec, err := Decide(&escrow, &msg, NewTxInfo(ctx, h.auth))
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, &escrow, dec, nil
}

// closeEscrow empties the escrow account to the given destination and
// deletes the record. Deletion is what makes the instance terminal, any
// later transition fails on lookup.
func closeEscrow(db weave.KVStore, bank cash.Controller, bucket orm.ModelBucket, key []byte, escrow *Escrow, dest weave.Address) error {
	available, err := bank.Balance(db, escrow.Address)
	if err != nil {
		return err
	}
	if err := cash.MoveCoins(db, bank, escrow.Address, dest, available); err != nil {
		return err
	}
	if err := bucket.Delete(db, key); err != nil {
		return errors.Wrap(err, "cannot delete escrow")
	}
	return nil
}

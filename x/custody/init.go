package custody

import (
	"encoding/hex"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/x/cash"
	"github.com/pkg/errors"
)

var _ weave.Initializer = (*Initializer)(nil)

var burnAddress, _ = hex.DecodeString("0000000000000000000000000000000000000000")

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct {
	Minter cash.CoinMinter
}

// FromGenesis will parse initial escrow info from genesis and save it in the
// database.
func (i *Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, db weave.KVStore) error {
	var escrows []struct {
		Depositor   weave.Address   `json:"depositor"`
		Beneficiary weave.Address   `json:"beneficiary"`
		Officials   []weave.Address `json:"officials"`
		Required    int32           `json:"required"`
		Deadline    weave.UnixTime  `json:"deadline"`
		Amount      []*coin.Coin    `json:"amount"`
		Memo        string          `json:"memo"`
	}

	if err := opts.ReadOptions("custody", &escrows); err != nil {
		return err
	}

	bucket := NewBucket()
	for j, e := range escrows {
		if !e.Depositor.Equals(burnAddress) {
			// Minting coins into an escrow with any other depositor
			// would generate new money for an existing account on
			// refund.
			return errors.Errorf("genesis escrow at position %d must have burn address depositor", j)
		}
		key, err := escrowSeq.NextVal(db)
		if err != nil {
			return errors.Wrap(err, "cannot acquire key")
		}
		esc, err := NewEscrow(key, e.Depositor, e.Beneficiary, e.Officials, e.Required, e.Deadline, e.Memo)
		if err != nil {
			return errors.Wrapf(err, "invalid escrow at position: %d", j)
		}
		if _, err := bucket.Put(db, key, esc); err != nil {
			return errors.Wrap(err, "cannot store escrow")
		}
		for _, c := range e.Amount {
			if err := i.Minter.CoinMint(db, esc.Address, *c); err != nil {
				return errors.Wrap(err, "failed to issue coins")
			}
		}
	}
	return nil
}

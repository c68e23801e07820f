package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custodian/x/custody"
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/crypto"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/x/cash"
	"github.com/iov-one/weave/x/sigs"
)

func TestTxRoundTrip(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	fee := coin.NewCoin(0, 10, "IOV")
	amount := coin.NewCoin(100, 0, "IOV")

	tx := &Tx{
		Fees: &cash.FeeInfo{
			Payer: alice.Address(),
			Fees:  &fee,
		},
		Multisig: [][]byte{weavetest.SequenceID(7)},
		Msg: &custody.CreateMsg{
			Metadata:    &weave.Metadata{Schema: 1},
			Source:      alice.Address(),
			Beneficiary: bob.Address(),
			Officials:   []weave.Address{alice.Address()},
			Required:    1,
			Amount:      coin.Coins{&amount},
			Deadline:    12345,
			Memo:        "vesting",
		},
	}

	pk := crypto.GenPrivKeyEd25519()
	sig, err := sigs.SignTx(pk, tx, "test-chain", 0)
	require.NoError(t, err)
	tx.Signatures = []*sigs.StdSignature{sig}

	raw, err := tx.Marshal()
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	parsed, err := TxDecoder(raw)
	require.NoError(t, err)
	loaded, ok := parsed.(*Tx)
	require.True(t, ok)

	assert.Equal(t, tx.Fees, loaded.Fees)
	assert.Equal(t, tx.Multisig, loaded.Multisig)
	require.Equal(t, 1, len(loaded.Signatures))
	assert.Equal(t, sig.Sequence, loaded.Signatures[0].Sequence)

	msg, err := loaded.GetMsg()
	require.NoError(t, err)
	create, ok := msg.(*custody.CreateMsg)
	require.True(t, ok)
	assert.Equal(t, "vesting", create.Memo)
	assert.Equal(t, alice.Address(), create.Source)
}

func TestTxSignBytesIgnoreSignatures(t *testing.T) {
	_ = weavetest.NewCondition()
	tx := &Tx{
		Msg: &custody.ApproveMsg{
			Metadata: &weave.Metadata{Schema: 1},
			EscrowId: weavetest.SequenceID(1),
		},
	}

	before, err := tx.GetSignBytes()
	require.NoError(t, err)

	pk := crypto.GenPrivKeyEd25519()
	sig, err := sigs.SignTx(pk, tx, "test-chain", 0)
	require.NoError(t, err)
	tx.Signatures = []*sigs.StdSignature{sig}

	after, err := tx.GetSignBytes()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	// signatures survive the sign bytes computation
	assert.Equal(t, 1, len(tx.Signatures))

	// identity of the payload must be part of the sign bytes
	tx.Msg = &custody.ReleaseMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: weavetest.SequenceID(1),
	}
	other, err := tx.GetSignBytes()
	require.NoError(t, err)
	assert.NotEqual(t, before, other)
}

func TestTxMessageDispatch(t *testing.T) {
	amount := coin.NewCoin(1, 0, "IOV")
	msgs := []weave.Msg{
		&cash.SendMsg{
			Metadata:    &weave.Metadata{Schema: 1},
			Source:      weavetest.NewCondition().Address(),
			Destination: weavetest.NewCondition().Address(),
			Amount:      &amount,
		},
		&custody.CreateMsg{Metadata: &weave.Metadata{Schema: 1}},
		&custody.ApproveMsg{Metadata: &weave.Metadata{Schema: 1}, EscrowId: weavetest.SequenceID(2)},
		&custody.ReleaseMsg{Metadata: &weave.Metadata{Schema: 1}, EscrowId: weavetest.SequenceID(3)},
		&custody.ReturnMsg{Metadata: &weave.Metadata{Schema: 1}, EscrowId: weavetest.SequenceID(4)},
	}
	for _, msg := range msgs {
		t.Run(msg.Path(), func(t *testing.T) {
			raw, err := (&Tx{Msg: msg}).Marshal()
			require.NoError(t, err)
			parsed, err := TxDecoder(raw)
			require.NoError(t, err)
			got, err := parsed.GetMsg()
			require.NoError(t, err)
			assert.IsType(t, msg, got)
			assert.Equal(t, msg.Path(), got.Path())
		})
	}
}

func TestTxWithoutMessage(t *testing.T) {
	var tx Tx
	raw, err := tx.Marshal()
	require.NoError(t, err)

	parsed, err := TxDecoder(raw)
	require.NoError(t, err)
	if _, err := parsed.GetMsg(); err == nil {
		t.Fatal("expected an error for a transaction without a message")
	}
}

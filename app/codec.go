package app

import (
	"io"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custodian/x/custody"
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/x/cash"
	"github.com/iov-one/weave/x/multisig"
	"github.com/iov-one/weave/x/sigs"
	"github.com/iov-one/weave/x/validators"
)

// Tx contains the message and the authorization data.
type Tx struct {
	Fees       *cash.FeeInfo
	Signatures []*sigs.StdSignature
	// Multisig contains IDs of multisig contracts that this transaction
	// may be authorized by.
	Multisig [][]byte
	// Msg is the action to be executed.
	Msg weave.Msg
}

// Transaction envelope field numbers. The message occupies one of the sum
// fields, selected by its type.
const (
	fieldFees      = 1
	fieldSigs      = 2
	fieldMultisig  = 4
	fieldSend      = 51
	fieldUpgrade   = 52
	fieldValidator = 53
	fieldContract  = 56
	fieldContrMod  = 57
	fieldCreate    = 60
	fieldApprove   = 61
	fieldRelease   = 62
	fieldReturn    = 63
)

func msgField(msg weave.Msg) (uint64, error) {
	switch msg.(type) {
	case *cash.SendMsg:
		return fieldSend, nil
	case *migration.UpgradeSchemaMsg:
		return fieldUpgrade, nil
	case *validators.ApplyDiffMsg:
		return fieldValidator, nil
	case *multisig.CreateMsg:
		return fieldContract, nil
	case *multisig.UpdateMsg:
		return fieldContrMod, nil
	case *custody.CreateMsg:
		return fieldCreate, nil
	case *custody.ApproveMsg:
		return fieldApprove, nil
	case *custody.ReleaseMsg:
		return fieldRelease, nil
	case *custody.ReturnMsg:
		return fieldReturn, nil
	}
	return 0, errors.Wrapf(errors.ErrType, "message type not supported: %T", msg)
}

func newMsg(field uint64) (weave.Msg, error) {
	switch field {
	case fieldSend:
		return &cash.SendMsg{}, nil
	case fieldUpgrade:
		return &migration.UpgradeSchemaMsg{}, nil
	case fieldValidator:
		return &validators.ApplyDiffMsg{}, nil
	case fieldContract:
		return &multisig.CreateMsg{}, nil
	case fieldContrMod:
		return &multisig.UpdateMsg{}, nil
	case fieldCreate:
		return &custody.CreateMsg{}, nil
	case fieldApprove:
		return &custody.ApproveMsg{}, nil
	case fieldRelease:
		return &custody.ReleaseMsg{}, nil
	case fieldReturn:
		return &custody.ReturnMsg{}, nil
	}
	return nil, errors.Wrapf(errors.ErrInput, "unknown field %d", field)
}

// wire type 2, length delimited
const wireBytes = 2

// Marshal produces a protobuf compatible encoding of the transaction. Every
// field is length delimited, the payload bytes come from the field's own
// codec.
func (tx *Tx) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)

	if tx.Fees != nil {
		raw, err := tx.Fees.Marshal()
		if err != nil {
			return nil, errors.Wrap(err, "cannot marshal fees")
		}
		_ = buf.EncodeVarint(fieldFees<<3 | wireBytes)
		_ = buf.EncodeRawBytes(raw)
	}
	for _, sig := range tx.Signatures {
		raw, err := sig.Marshal()
		if err != nil {
			return nil, errors.Wrap(err, "cannot marshal signature")
		}
		_ = buf.EncodeVarint(fieldSigs<<3 | wireBytes)
		_ = buf.EncodeRawBytes(raw)
	}
	for _, contract := range tx.Multisig {
		_ = buf.EncodeVarint(fieldMultisig<<3 | wireBytes)
		_ = buf.EncodeRawBytes(contract)
	}
	if tx.Msg != nil {
		field, err := msgField(tx.Msg)
		if err != nil {
			return nil, err
		}
		raw, err := tx.Msg.Marshal()
		if err != nil {
			return nil, errors.Wrap(err, "cannot marshal message")
		}
		_ = buf.EncodeVarint(field<<3 | wireBytes)
		_ = buf.EncodeRawBytes(raw)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a transaction produced by Marshal.
func (tx *Tx) Unmarshal(bz []byte) error {
	*tx = Tx{}
	buf := proto.NewBuffer(bz)
	for {
		tag, err := buf.DecodeVarint()
		if err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
		if tag&7 != wireBytes {
			return errors.Wrapf(errors.ErrInput, "unexpected wire type %d", tag&7)
		}
		raw, err := buf.DecodeRawBytes(true)
		if err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}

		switch field := tag >> 3; field {
		case fieldFees:
			fees := &cash.FeeInfo{}
			if err := fees.Unmarshal(raw); err != nil {
				return errors.Wrap(err, "cannot unmarshal fees")
			}
			tx.Fees = fees
		case fieldSigs:
			sig := &sigs.StdSignature{}
			if err := sig.Unmarshal(raw); err != nil {
				return errors.Wrap(err, "cannot unmarshal signature")
			}
			tx.Signatures = append(tx.Signatures, sig)
		case fieldMultisig:
			tx.Multisig = append(tx.Multisig, raw)
		default:
			if tx.Msg != nil {
				return errors.Wrap(errors.ErrInput, "more than one message")
			}
			msg, err := newMsg(field)
			if err != nil {
				return err
			}
			if err := msg.Unmarshal(raw); err != nil {
				return errors.Wrap(err, "cannot unmarshal message")
			}
			tx.Msg = msg
		}
	}
}

package custody_test

import (
	"testing"

	"github.com/iov-one/custodian/x/custody"
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestEscrowValidate(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	o1 := weavetest.NewCondition()
	o2 := weavetest.NewCondition()

	specs := map[string]struct {
		Mutator func(esc *custody.Escrow)
		Exp     *errors.Error
	}{
		"happy path": {},
		"missing metadata": {
			Mutator: func(esc *custody.Escrow) {
				esc.Metadata = nil
			},
			Exp: errors.ErrMetadata,
		},
		"missing depositor": {
			Mutator: func(esc *custody.Escrow) {
				esc.Depositor = nil
			},
			Exp: errors.ErrInput,
		},
		"missing beneficiary": {
			Mutator: func(esc *custody.Escrow) {
				esc.Beneficiary = nil
			},
			Exp: errors.ErrInput,
		},
		"no officials and zero threshold": {
			Mutator: func(esc *custody.Escrow) {
				esc.Officials = nil
				esc.Approvals = nil
				esc.Required = 0
			},
		},
		"duplicate officials": {
			Mutator: func(esc *custody.Escrow) {
				esc.Officials = []weave.Address{o1.Address(), o1.Address()}
			},
			Exp: errors.ErrDuplicate,
		},
		"threshold above officials count": {
			Mutator: func(esc *custody.Escrow) {
				esc.Required = 5
			},
			Exp: custody.ErrInvalidConfiguration,
		},
		"negative threshold": {
			Mutator: func(esc *custody.Escrow) {
				esc.Required = -1
			},
			Exp: custody.ErrInvalidConfiguration,
		},
		"approval from outside the officials": {
			Mutator: func(esc *custody.Escrow) {
				esc.Approvals = []weave.Address{bob.Address()}
			},
			Exp: custody.ErrUnauthorizedApprover,
		},
		"duplicate approvals": {
			Mutator: func(esc *custody.Escrow) {
				esc.Approvals = []weave.Address{o1.Address(), o1.Address()}
			},
			Exp: custody.ErrDuplicateApproval,
		},
		"zero deadline": {
			Mutator: func(esc *custody.Escrow) {
				esc.Deadline = 0
			},
			Exp: errors.ErrInput,
		},
		"memo too long": {
			Mutator: func(esc *custody.Escrow) {
				esc.Memo = string(make([]byte, 129))
			},
			Exp: errors.ErrInput,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			esc, err := custody.NewEscrow(
				weavetest.SequenceID(1),
				alice.Address(),
				bob.Address(),
				[]weave.Address{o1.Address(), o2.Address()},
				2,
				12345,
				"grant disbursement",
			)
			assert.Nil(t, err)
			esc.Approvals = []weave.Address{o1.Address()}
			if spec.Mutator != nil {
				spec.Mutator(esc)
			}
			if err := esc.Validate(); !spec.Exp.Is(err) {
				t.Fatalf("expected %v but got %+v", spec.Exp, err)
			}
		})
	}
}

func TestNewEscrowRejectsBadConfiguration(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	o1 := weavetest.NewCondition()

	for _, required := range []int32{-1, 2} {
		_, err := custody.NewEscrow(
			weavetest.SequenceID(1),
			alice.Address(),
			bob.Address(),
			[]weave.Address{o1.Address()},
			required,
			12345,
			"",
		)
		if !custody.ErrInvalidConfiguration.Is(err) {
			t.Fatalf("required=%d: expected invalid configuration, got %+v", required, err)
		}
	}
}

func TestNewEscrowStartsWithoutApprovals(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	o1 := weavetest.NewCondition()

	esc, err := custody.NewEscrow(
		weavetest.SequenceID(1),
		alice.Address(),
		bob.Address(),
		[]weave.Address{o1.Address()},
		1,
		12345,
		"",
	)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(esc.Approvals))
	assert.Equal(t, custody.Condition(weavetest.SequenceID(1)).Address(), esc.Address)
}

func TestEscrowCopyIsDeep(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	o1 := weavetest.NewCondition()
	o2 := weavetest.NewCondition()

	esc, err := custody.NewEscrow(
		weavetest.SequenceID(1),
		alice.Address(),
		bob.Address(),
		[]weave.Address{o1.Address(), o2.Address()},
		2,
		12345,
		"",
	)
	assert.Nil(t, err)
	esc.Approvals = []weave.Address{o1.Address()}

	cpy := esc.Copy().(*custody.Escrow)
	cpy.Approvals = append(cpy.Approvals, o2.Address())
	assert.Equal(t, 1, len(esc.Approvals))
	assert.Equal(t, 2, len(cpy.Approvals))
}

func TestEscrowSerialization(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	o1 := weavetest.NewCondition()

	esc, err := custody.NewEscrow(
		weavetest.SequenceID(1),
		alice.Address(),
		bob.Address(),
		[]weave.Address{o1.Address()},
		1,
		12345,
		"treasury",
	)
	assert.Nil(t, err)
	esc.Approvals = []weave.Address{o1.Address()}

	raw, err := esc.Marshal()
	assert.Nil(t, err)
	var loaded custody.Escrow
	assert.Nil(t, loaded.Unmarshal(raw))
	assert.Equal(t, esc, &loaded)
}

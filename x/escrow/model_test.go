package escrow

import (
	"testing"

	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscrowEncoding(t *testing.T) {
	e := Escrow{
		Index:    7,
		Sender:   custodytest.NewAddress(),
		Receiver: custodytest.NewAddress(),
		Mint:     custodytest.NewAddress(),
		Holding:  custodytest.NewAddress(),
		Amount:   100,
		Stage:    uint8(FundsDeposited),
	}
	raw, err := e.Marshal()
	require.NoError(t, err)

	var got Escrow
	require.NoError(t, got.Unmarshal(raw))
	assert.Equal(t, e, got)
	assert.NoError(t, got.Validate())
}

func TestEscrowValidate(t *testing.T) {
	valid := func() Escrow {
		return Escrow{
			Sender:   custodytest.NewAddress(),
			Receiver: custodytest.NewAddress(),
			Mint:     custodytest.NewAddress(),
			Holding:  custodytest.NewAddress(),
			Amount:   1,
			Stage:    uint8(EscrowComplete),
		}
	}

	cases := map[string]struct {
		mod     func(*Escrow)
		wantErr *errors.Error
	}{
		"valid":              {mod: func(*Escrow) {}},
		"missing sender":     {mod: func(e *Escrow) { e.Sender = nil }, wantErr: errors.ErrInput},
		"short holding":      {mod: func(e *Escrow) { e.Holding = e.Holding[:5] }, wantErr: errors.ErrInput},
		"uninitialized":      {mod: func(e *Escrow) { e.Stage = 0 }, wantErr: ErrStageInvalid},
		"unknown stage code": {mod: func(e *Escrow) { e.Stage = 42 }, wantErr: ErrStageInvalid},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := valid()
			tc.mod(&e)
			err := e.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "%+v", err)
			}
		})
	}
}

func TestEscrowUnknownStageDecodes(t *testing.T) {
	e := Escrow{Sender: custodytest.NewAddress(), Stage: 9}
	raw, err := e.Marshal()
	require.NoError(t, err)

	var got Escrow
	require.NoError(t, got.Unmarshal(raw))
	_, err = got.CurrentStage()
	assert.True(t, ErrStageInvalid.Is(err))
}

func TestEscrowRejectsWireMismatch(t *testing.T) {
	cases := map[string]*orm.Encoder{
		"index as varint":   orm.NewEncoder().Varint(1, 7),
		"holding as varint": orm.NewEncoder().Varint(5, 1),
		"amount as bytes":   orm.NewEncoder().Bytes(6, []byte("100")),
		"stage as fixed64":  orm.NewEncoder().Fixed64(7, 1),
	}
	for testName, enc := range cases {
		t.Run(testName, func(t *testing.T) {
			raw, err := enc.Result()
			require.NoError(t, err)
			var e Escrow
			err = e.Unmarshal(raw)
			assert.True(t, errors.ErrModel.Is(err), "got %+v", err)
		})
	}
}

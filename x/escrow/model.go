package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	// BucketName is where we store the escrows
	BucketName = "escrow"
)

// Escrow is the record of a single grant. It is stored under the
// address derived with StateLabel.
type Escrow struct {
	Index    uint64          `json:"index"`
	Sender   custody.Address `json:"sender"`
	Receiver custody.Address `json:"receiver"`
	Mint     custody.Address `json:"mint"`
	// Holding is the account keeping the deposited tokens.
	Holding custody.Address `json:"holding"`
	// Amount is the deposited value. It never changes after creation.
	Amount uint64 `json:"amount"`
	// Stage is kept as the raw code, use CurrentStage to read it.
	Stage uint8 `json:"stage"`
}

var _ orm.Model = (*Escrow)(nil)

// CurrentStage decodes the stored stage.
func (e *Escrow) CurrentStage() (Stage, error) {
	return ParseStage(e.Stage)
}

// Seeds returns the derivation inputs of this escrow.
func (e *Escrow) Seeds() Seeds {
	return Seeds{
		Sender:   e.Sender,
		Receiver: e.Receiver,
		Mint:     e.Mint,
		Index:    e.Index,
	}
}

// Validate ensures the escrow is fit to be stored.
func (e *Escrow) Validate() error {
	if err := e.Seeds().Validate(); err != nil {
		return err
	}
	if err := e.Holding.Validate(); err != nil {
		return errors.Wrap(err, "holding")
	}
	stage, err := e.CurrentStage()
	if err != nil {
		return err
	}
	if stage == Uninitialized {
		return errors.Wrap(ErrStageInvalid, "uninitialized escrow cannot be stored")
	}
	return nil
}

func (e *Escrow) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Fixed64(1, e.Index).
		Bytes(2, e.Sender).
		Bytes(3, e.Receiver).
		Bytes(4, e.Mint).
		Bytes(5, e.Holding).
		Fixed64(6, e.Amount).
		Varint(7, uint64(e.Stage)).
		Result()
}

var escrowSchema = orm.Schema{
	1: orm.WireFixed64,
	2: orm.WireBytes,
	3: orm.WireBytes,
	4: orm.WireBytes,
	5: orm.WireBytes,
	6: orm.WireFixed64,
	7: orm.WireVarint,
}

func (e *Escrow) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, escrowSchema)
	if err != nil {
		return err
	}
	*e = Escrow{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			e.Index = f.Value
		case 2:
			e.Sender = f.Bytes
		case 3:
			e.Receiver = f.Bytes
		case 4:
			e.Mint = f.Bytes
		case 5:
			e.Holding = f.Bytes
		case 6:
			e.Amount = f.Value
		case 7:
			if f.Value > 0xff {
				return errors.Wrapf(errors.ErrModel, "stage code %d", f.Value)
			}
			e.Stage = uint8(f.Value)
		}
	}
	return nil
}

// NewBucket returns the bucket holding all escrows, keyed by the
// address derived with StateLabel.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Escrow{})
}

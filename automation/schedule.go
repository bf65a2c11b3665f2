package automation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/parachain-tools/xcm-automation/xcm"
)

// Schedule is the ScheduleParam of an automation task.
type Schedule interface {
	scale.Encodeable
	// FirstExecution is the first execution time in unix seconds. Zero means as soon as possible.
	FirstExecution() uint64
	Validate() error
	isSchedule()
}

// Fixed runs the task once at each of ExecutionTimes.
type Fixed struct {
	ExecutionTimes []uint64
}

// Recurring runs the task every Frequency seconds starting at NextExecutionTime.
type Recurring struct {
	NextExecutionTime uint64
	Frequency         uint64
}

func (Fixed) isSchedule()     {}
func (Recurring) isSchedule() {}

// Immediate is a Fixed schedule running as soon as possible.
func Immediate() Fixed {
	return Fixed{ExecutionTimes: []uint64{0}}
}

// FirstExecution returns the earliest execution time.
func (f Fixed) FirstExecution() uint64 {
	var first uint64
	for i, t := range f.ExecutionTimes {
		if i == 0 || t < first {
			first = t
		}
	}

	return first
}

// Validate requires at least one execution time.
func (f Fixed) Validate() error {
	if len(f.ExecutionTimes) == 0 {
		return errors.New("fixed schedule needs at least one execution time")
	}

	return nil
}

// Encode implements scale.Encodeable.
func (f Fixed) Encode(e scale.Encoder) error {
	if err := e.PushByte(0); err != nil {
		return err
	}
	if err := e.EncodeUintCompact(*new(big.Int).SetInt64(int64(len(f.ExecutionTimes)))); err != nil {
		return err
	}
	for _, t := range f.ExecutionTimes {
		if err := e.Encode(types.NewU64(t)); err != nil {
			return err
		}
	}

	return nil
}

// FirstExecution returns NextExecutionTime.
func (r Recurring) FirstExecution() uint64 {
	return r.NextExecutionTime
}

// Validate requires a positive frequency.
func (r Recurring) Validate() error {
	if r.Frequency == 0 {
		return errors.New("recurring schedule needs a positive frequency")
	}

	return nil
}

// Encode implements scale.Encodeable.
func (r Recurring) Encode(e scale.Encoder) error {
	if err := e.PushByte(1); err != nil {
		return err
	}
	if err := e.Encode(types.NewU64(r.NextExecutionTime)); err != nil {
		return err
	}

	return e.Encode(types.NewU64(r.Frequency))
}

// InstructionSequence selects who pays for execution on the destination.
type InstructionSequence uint8

const (
	// PayThroughSovereignAccount pays from the automation chain's sovereign account.
	PayThroughSovereignAccount InstructionSequence = iota
	// PayThroughRemoteDerivativeAccount pays from the task owner's derived account. The automation
	// chain prepends a DescendOrigin to the message.
	PayThroughRemoteDerivativeAccount
)

// ParseInstructionSequence parses "sovereign" or "derivative".
func ParseInstructionSequence(s string) (InstructionSequence, error) {
	switch s {
	case "", "sovereign":
		return PayThroughSovereignAccount, nil
	case "derivative":
		return PayThroughRemoteDerivativeAccount, nil
	}

	return 0, fmt.Errorf("unknown instruction sequence %q", s)
}

func (s InstructionSequence) String() string {
	if s == PayThroughRemoteDerivativeAccount {
		return "derivative"
	}

	return "sovereign"
}

// Encode implements scale.Encodeable.
func (s InstructionSequence) Encode(e scale.Encoder) error {
	return e.PushByte(byte(s))
}

// builderOptions returns the xcm builder options matching the program the automation chain sends.
func (s InstructionSequence) builderOptions() []xcm.BuilderOption {
	if s == PayThroughRemoteDerivativeAccount {
		return []xcm.BuilderOption{xcm.WithImplicitDescendOrigin()}
	}

	return nil
}

// AssetPayment is an amount of the asset at AssetLocation.
type AssetPayment struct {
	AssetLocation xcm.VersionedLocation
	Amount        *big.Int
}

// Encode implements scale.Encodeable. Amount is a plain u128.
func (p AssetPayment) Encode(e scale.Encoder) error {
	if p.Amount == nil || p.Amount.Sign() < 0 {
		return errors.New("asset payment amount must be a non-negative integer")
	}
	if p.Amount.BitLen() > 128 {
		return fmt.Errorf("asset payment amount %s overflows u128", p.Amount)
	}
	if err := p.AssetLocation.Encode(e); err != nil {
		return err
	}

	return e.Encode(types.NewU128(*p.Amount))
}

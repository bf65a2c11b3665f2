package xcm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/parachain-tools/xcm-automation/weight"
)

// transactProgramLen is the number of instructions Build emits.
const transactProgramLen = 5

// BuildParams describe a remote Transact paid for from the sender's holding on the destination.
type BuildParams struct {
	Destination MultiLocation
	EncodedCall []byte
	// RequiredCallWeight bounds the Transact dispatch.
	RequiredCallWeight weight.Weight
	// OverallWeight is the BuyExecution limit. It must cover every instruction, see
	// Builder.OverallWeight.
	OverallWeight weight.Weight
	// FeeAsset is the fee asset as seen from the destination.
	FeeAsset  MultiLocation
	FeeAmount *big.Int
	// Beneficiary receives whatever remains in holding.
	Beneficiary MultiLocation
	Version     Version
	// OriginKind defaults to OriginSovereignAccount.
	OriginKind *OriginKind
}

// Validate checks p before any encoding is attempted.
func (p BuildParams) Validate() error {
	var errs []error
	if len(p.EncodedCall) == 0 {
		errs = append(errs, errors.New("encoded call is empty"))
	}
	if p.FeeAmount == nil || p.FeeAmount.Sign() <= 0 {
		errs = append(errs, errors.New("fee amount must be positive"))
	}
	if err := p.RequiredCallWeight.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("required call weight: %w", err))
	}
	if err := p.OverallWeight.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("overall weight: %w", err))
	}
	if !p.RequiredCallWeight.AllLTE(p.OverallWeight) {
		errs = append(errs, fmt.Errorf("required call weight %s exceeds overall weight %s",
			p.RequiredCallWeight, p.OverallWeight))
	}
	for name, loc := range map[string]MultiLocation{
		"destination": p.Destination, "fee asset": p.FeeAsset, "beneficiary": p.Beneficiary,
	} {
		if err := loc.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if _, err := p.Version.messageIndex(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Builder assembles withdraw / buy-execution / transact / refund / deposit programs and reports
// how many instructions the destination will execute for them, so that fee estimation and message
// construction cannot disagree.
type Builder struct {
	implicitDescendOrigin bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithImplicitDescendOrigin declares that the sending pallet prepends a DescendOrigin to every
// message (pallet-xcm's send does for signed origins). It is counted but not emitted.
func WithImplicitDescendOrigin() BuilderOption {
	return func(b *Builder) { b.implicitDescendOrigin = true }
}

// NewBuilder returns a Builder.
func NewBuilder(opts ...BuilderOption) Builder {
	var b Builder
	for _, opt := range opts {
		opt(&b)
	}

	return b
}

// InstructionCount is the number of instructions the destination executes for a built message.
func (b Builder) InstructionCount() uint64 {
	if b.implicitDescendOrigin {
		return transactProgramLen + 1
	}

	return transactProgramLen
}

// OverallWeight is the BuyExecution limit for a Transact of callWeight given the destination's
// per-instruction weight.
func (b Builder) OverallWeight(callWeight, perInstruction weight.Weight) weight.Weight {
	return weight.OverallWeight(callWeight, perInstruction, b.InstructionCount())
}

// Build returns the program for p in the order WithdrawAsset, BuyExecution, Transact,
// RefundSurplus, DepositAsset.
func (b Builder) Build(p BuildParams) (Message, error) {
	if err := p.Validate(); err != nil {
		return Message{}, fmt.Errorf("invalid xcm build params: %w", err)
	}

	originKind := OriginSovereignAccount
	if p.OriginKind != nil {
		originKind = *p.OriginKind
	}

	fees := Fungible(p.FeeAsset, new(big.Int).Set(p.FeeAmount))
	limit := p.OverallWeight

	return Message{
		Version:     p.Version,
		Destination: p.Destination,
		Instructions: []Instruction{
			WithdrawAsset{Assets: []MultiAsset{fees}},
			BuyExecution{Fees: fees, WeightLimit: &limit},
			Transact{
				OriginKind:          originKind,
				RequireWeightAtMost: p.RequiredCallWeight,
				Call:                append([]byte(nil), p.EncodedCall...),
			},
			RefundSurplus{},
			DepositAsset{MaxAssets: 1, Beneficiary: p.Beneficiary},
		},
	}, nil
}

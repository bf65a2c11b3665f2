package xcm

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/parachain-tools/xcm-automation/weight"
)

// OriginKind selects the origin a Transact call dispatches with.
type OriginKind uint8

const (
	OriginNative OriginKind = iota
	OriginSovereignAccount
	OriginSuperuser
	OriginXcm
)

// Instruction is one step of an XCM program. The set is closed: WithdrawAsset, BuyExecution,
// Transact, RefundSurplus, DepositAsset, DescendOrigin and ClearOrigin.
type Instruction interface {
	// Name is the instruction's name as it appears in the runtime, e.g. "BuyExecution".
	Name() string
	instruction()
}

// WithdrawAsset moves assets from the origin account into holding.
type WithdrawAsset struct {
	Assets []MultiAsset
}

// BuyExecution pays Fees from holding for at most WeightLimit weight. A nil limit is Unlimited.
type BuyExecution struct {
	Fees        MultiAsset
	WeightLimit *weight.Weight
}

// Transact dispatches an encoded call.
type Transact struct {
	OriginKind          OriginKind
	RequireWeightAtMost weight.Weight
	Call                []byte
}

// RefundSurplus returns unused weight credit to holding.
type RefundSurplus struct{}

// DepositAsset moves holding to Beneficiary. Nil Assets deposits everything (a wild filter);
// MaxAssets bounds how many distinct assets that covers.
type DepositAsset struct {
	Assets      []MultiAsset
	MaxAssets   uint32
	Beneficiary MultiLocation
}

// DescendOrigin appends Interior to the current origin.
type DescendOrigin struct {
	Interior []Junction
}

// ClearOrigin removes the origin.
type ClearOrigin struct{}

func (WithdrawAsset) Name() string { return "WithdrawAsset" }
func (BuyExecution) Name() string  { return "BuyExecution" }
func (Transact) Name() string      { return "Transact" }
func (RefundSurplus) Name() string { return "RefundSurplus" }
func (DepositAsset) Name() string  { return "DepositAsset" }
func (DescendOrigin) Name() string { return "DescendOrigin" }
func (ClearOrigin) Name() string   { return "ClearOrigin" }

func (WithdrawAsset) instruction() {}
func (BuyExecution) instruction()  {}
func (Transact) instruction()      {}
func (RefundSurplus) instruction() {}
func (DepositAsset) instruction()  {}
func (DescendOrigin) instruction() {}
func (ClearOrigin) instruction()   {}

const (
	opWithdrawAsset = 0
	opTransact      = 6
	opClearOrigin   = 10
	opDescendOrigin = 11
	opDepositAsset  = 13
	opBuyExecution  = 19
	opRefundSurplus = 20
)

func encodeInstruction(e scale.Encoder, v Version, ins Instruction) error {
	c, err := codecFor(v)
	if err != nil {
		return err
	}

	switch ins := ins.(type) {
	case WithdrawAsset:
		if err = e.PushByte(opWithdrawAsset); err != nil {
			return err
		}

		return encodeAssets(e, c, ins.Assets)
	case BuyExecution:
		if err = e.PushByte(opBuyExecution); err != nil {
			return err
		}
		if err = encodeAsset(e, c, ins.Fees); err != nil {
			return err
		}
		return WeightLimit{Version: v, Limit: ins.WeightLimit}.Encode(e)
	case Transact:
		if err = e.PushByte(opTransact); err != nil {
			return err
		}
		if err = e.PushByte(byte(ins.OriginKind)); err != nil {
			return err
		}
		if err = encodeWeight(e, v, ins.RequireWeightAtMost); err != nil {
			return err
		}

		return e.Encode(ins.Call)
	case RefundSurplus:
		return e.PushByte(opRefundSurplus)
	case DepositAsset:
		if err = e.PushByte(opDepositAsset); err != nil {
			return err
		}
		if err = encodeFilter(e, v, c, ins.Assets, ins.MaxAssets); err != nil {
			return err
		}
		if v != V3 {
			if err = encodeCompact(e, uint64(ins.MaxAssets)); err != nil {
				return err
			}
		}

		return c.location(e, ins.Beneficiary)
	case DescendOrigin:
		if err = e.PushByte(opDescendOrigin); err != nil {
			return err
		}

		return c.junctions(e, ins.Interior)
	case ClearOrigin:
		return e.PushByte(opClearOrigin)
	}

	return fmt.Errorf("unknown instruction %T", ins)
}

// WeightLimit is the Unlimited / Limited(weight) enum of BuyExecution and of the limited transfer
// extrinsics. A nil Limit is Unlimited.
type WeightLimit struct {
	Version Version
	Limit   *weight.Weight
}

// Encode implements scale.Encodeable.
func (l WeightLimit) Encode(e scale.Encoder) error {
	if l.Limit == nil {
		return e.PushByte(0)
	}
	if err := e.PushByte(1); err != nil {
		return err
	}

	return encodeWeight(e, l.Version, *l.Limit)
}

// encodeWeight writes V2's single compact ref_time or V3's two-dimensional weight.
func encodeWeight(e scale.Encoder, v Version, w weight.Weight) error {
	if v == V3 {
		return w.Encode(e)
	}

	return w.EncodeRefTimeCompact(e)
}

// encodeFilter writes a MultiAssetFilter. In V3 a wild deposit with MaxAssets set becomes
// AllCounted(MaxAssets), which replaces V2's separate max_assets field.
func encodeFilter(e scale.Encoder, v Version, c locationEncoder, assets []MultiAsset, maxAssets uint32) error {
	if assets != nil {
		if err := e.PushByte(0); err != nil {
			return err
		}

		return encodeAssets(e, c, assets)
	}
	if err := e.PushByte(1); err != nil {
		return err
	}
	if v == V3 && maxAssets > 0 {
		if err := e.PushByte(2); err != nil {
			return err
		}

		return encodeCompact(e, uint64(maxAssets))
	}

	return e.PushByte(0)
}

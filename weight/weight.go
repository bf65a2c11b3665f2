// Package weight implements the two-dimensional execution weight used to size XCM execution
// budgets and the fungible fee paid for them.
package weight

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// ErrOverflow is returned when a weight dimension does not fit the width the encoding requires.
var ErrOverflow = errors.New("weight overflow")

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// Weight is an execution cost measured in computation time (picoseconds) and proof size (bytes).
// Both dimensions are kept as arbitrary precision integers and every operation is applied to each
// dimension independently. The zero value is a zero weight.
type Weight struct {
	refTime   *big.Int
	proofSize *big.Int
}

// New returns a Weight from uint64 dimensions.
func New(refTime, proofSize uint64) Weight {
	return Weight{
		refTime:   new(big.Int).SetUint64(refTime),
		proofSize: new(big.Int).SetUint64(proofSize),
	}
}

// FromBig returns a Weight holding copies of the given dimensions. Nil is treated as zero.
func FromBig(refTime, proofSize *big.Int) Weight {
	return Weight{refTime: copyOrZero(refTime), proofSize: copyOrZero(proofSize)}
}

// Zero returns the zero weight.
func Zero() Weight { return New(0, 0) }

// RefTime returns a copy of the computation time dimension.
func (w Weight) RefTime() *big.Int { return copyOrZero(w.refTime) }

// ProofSize returns a copy of the proof size dimension.
func (w Weight) ProofSize() *big.Int { return copyOrZero(w.proofSize) }

// Add returns w + o, per dimension.
func (w Weight) Add(o Weight) Weight {
	return Weight{
		refTime:   new(big.Int).Add(w.RefTime(), o.RefTime()),
		proofSize: new(big.Int).Add(w.ProofSize(), o.ProofSize()),
	}
}

// Mul returns w scaled by n, per dimension.
func (w Weight) Mul(n uint64) Weight {
	f := new(big.Int).SetUint64(n)

	return Weight{
		refTime:   new(big.Int).Mul(w.RefTime(), f),
		proofSize: new(big.Int).Mul(w.ProofSize(), f),
	}
}

// Equal reports whether both dimensions are equal.
func (w Weight) Equal(o Weight) bool {
	return w.RefTime().Cmp(o.RefTime()) == 0 && w.ProofSize().Cmp(o.ProofSize()) == 0
}

// IsZero reports whether both dimensions are zero.
func (w Weight) IsZero() bool {
	return w.RefTime().Sign() == 0 && w.ProofSize().Sign() == 0
}

// AllLTE reports whether every dimension of w is less than or equal to the same dimension of o.
func (w Weight) AllLTE(o Weight) bool {
	return w.RefTime().Cmp(o.RefTime()) <= 0 && w.ProofSize().Cmp(o.ProofSize()) <= 0
}

func (w Weight) String() string {
	return fmt.Sprintf("{ref_time: %s, proof_size: %s}", w.RefTime(), w.ProofSize())
}

// Validate checks that both dimensions are non-negative and fit a u64, the width used by the
// runtime's Weight type.
func (w Weight) Validate() error {
	for name, v := range map[string]*big.Int{"ref_time": w.RefTime(), "proof_size": w.ProofSize()} {
		if v.Sign() < 0 {
			return fmt.Errorf("%s is negative: %s", name, v)
		}
		if v.Cmp(maxUint64) > 0 {
			return fmt.Errorf("%s %s: %w", name, v, ErrOverflow)
		}
	}

	return nil
}

// Encode writes the weight as the runtime's two-dimensional Weight:
// { ref_time: Compact<u64>, proof_size: Compact<u64> }.
func (w Weight) Encode(encoder scale.Encoder) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := encoder.EncodeUintCompact(*w.RefTime()); err != nil {
		return err
	}

	return encoder.EncodeUintCompact(*w.ProofSize())
}

// EncodeRefTimeCompact writes only the computation time as Compact<u64>, the single dimension
// weight used by XCM v2 instructions.
func (w Weight) EncodeRefTimeCompact(encoder scale.Encoder) error {
	if err := w.Validate(); err != nil {
		return err
	}

	return encoder.EncodeUintCompact(*w.RefTime())
}

type weightJSON struct {
	RefTime   string `json:"refTime"`
	ProofSize string `json:"proofSize"`
}

// MarshalJSON encodes both dimensions as decimal strings so values above 2^53 survive.
func (w Weight) MarshalJSON() ([]byte, error) {
	return json.Marshal(weightJSON{RefTime: w.RefTime().String(), ProofSize: w.ProofSize().String()})
}

// UnmarshalJSON accepts decimal strings or JSON numbers for either dimension.
func (w *Weight) UnmarshalJSON(b []byte) error {
	var raw struct {
		RefTime   json.Number `json:"refTime"`
		ProofSize json.Number `json:"proofSize"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	refTime, err := parseDimension(raw.RefTime.String())
	if err != nil {
		return fmt.Errorf("refTime: %w", err)
	}
	proofSize, err := parseDimension(raw.ProofSize.String())
	if err != nil {
		return fmt.Errorf("proofSize: %w", err)
	}

	*w = Weight{refTime: refTime, proofSize: proofSize}

	return nil
}

// Parse builds a Weight from decimal strings. An empty string is zero.
func Parse(refTime, proofSize string) (Weight, error) {
	rt, err := parseDimension(refTime)
	if err != nil {
		return Weight{}, fmt.Errorf("ref_time: %w", err)
	}
	ps, err := parseDimension(proofSize)
	if err != nil {
		return Weight{}, fmt.Errorf("proof_size: %w", err)
	}

	return Weight{refTime: rt, proofSize: ps}, nil
}

func parseDimension(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %q", s)
	}

	return v, nil
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(v)
}

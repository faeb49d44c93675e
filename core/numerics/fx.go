// Package numerics implements the fixed-point arithmetic and weighted
// balance splitting used throughout the hub for yield accrual and
// validator allocation. It deliberately avoids arbitrary-precision
// arithmetic (math/big) in favor of a fixed-width 256-bit integer so
// every operation has a bounded, auditable cost.
package numerics

import (
	"fmt"

	"github.com/holiman/uint256"

	"synthub/core/chain"
)

// fracBits is the number of fractional bits carried by Fx: a
// 128.128 fixed-point layout packed into a 256-bit unsigned integer.
const fracBits = 128

// Fx is a 128.128 fixed-point unsigned number. The zero value is 0.
type Fx struct {
	raw uint256.Int
}

var pow2_128 = func() uint256.Int {
	var one, shifted uint256.Int
	one.SetOne()
	shifted.Lsh(&one, fracBits)
	return shifted
}()

// FromInteger lifts a whole uint64 into fixed-point representation.
func FromInteger(x uint64) Fx {
	var f Fx
	f.raw.SetUint64(x)
	f.raw.Mul(&f.raw, &pow2_128)
	return f
}

// FromRaw wraps a pre-scaled 256-bit integer directly, for callers that
// already hold a raw fixed-point value (e.g. decoded from storage).
func FromRaw(raw *uint256.Int) Fx {
	var f Fx
	f.raw.Set(raw)
	return f
}

// Raw returns the underlying 256-bit fixed-point representation.
func (f Fx) Raw() *uint256.Int {
	var cpy uint256.Int
	cpy.Set(&f.raw)
	return &cpy
}

// IsZero reports whether f is exactly zero.
func (f Fx) IsZero() bool { return f.raw.IsZero() }

// Cmp compares f to other, matching uint256.Int.Cmp's contract.
func (f Fx) Cmp(other Fx) int { return f.raw.Cmp(&other.raw) }

// Add returns f + rhs, failing with ErrInvariantBroken on overflow.
func (f Fx) Add(rhs Fx) (Fx, error) {
	var sum uint256.Int
	_, overflow := sum.AddOverflow(&f.raw, &rhs.raw)
	if overflow {
		return Fx{}, fmt.Errorf("%w: fixed-point addition overflow", chain.ErrInvariantBroken)
	}
	return Fx{raw: sum}, nil
}

// Sub returns f - rhs, failing with ErrInvariantBroken on underflow.
func (f Fx) Sub(rhs Fx) (Fx, error) {
	var diff uint256.Int
	_, underflow := diff.SubOverflow(&f.raw, &rhs.raw)
	if underflow {
		return Fx{}, fmt.Errorf("%w: fixed-point subtraction underflow", chain.ErrInvariantBroken)
	}
	return Fx{raw: diff}, nil
}

// Mul returns f * rhs with one right-shift by fracBits to keep the
// result in 128.128 scale, via a 512-bit intermediate product.
func (f Fx) Mul(rhs Fx) (Fx, bool) {
	if f.raw.IsZero() || rhs.raw.IsZero() {
		return Fx{}, true
	}
	var res uint256.Int
	_, overflow := res.MulDivOverflow(&f.raw, &rhs.raw, &pow2_128)
	if overflow {
		return Fx{}, false
	}
	return Fx{raw: res}, true
}

// Div returns f / rhs, scaling the numerator up by fracBits before
// dividing so the quotient lands back in 128.128 scale. Reports false
// on division by zero or on overflow of the scaled numerator.
func (f Fx) Div(rhs Fx) (Fx, bool) {
	if rhs.raw.IsZero() {
		return Fx{}, false
	}
	if f.raw.IsZero() {
		return Fx{}, true
	}
	var res uint256.Int
	_, overflow := res.MulDivOverflow(&f.raw, &pow2_128, &rhs.raw)
	if overflow {
		return Fx{}, false
	}
	return Fx{raw: res}, true
}

// Floor truncates the fractional part and returns the integral part as
// a uint64. Callers must ensure the integral part fits; values produced
// internally by this module never exceed uint64 range because amounts
// are uint64 throughout.
func (f Fx) Floor() (uint64, error) {
	var whole uint256.Int
	whole.Rsh(&f.raw, fracBits)
	if !whole.IsUint64() {
		return 0, fmt.Errorf("%w: fixed-point value does not fit in uint64", chain.ErrInvariantBroken)
	}
	return whole.Uint64(), nil
}

// Bytes32 encodes f as a 32-byte big-endian integer, for storage.
func (f Fx) Bytes32() [32]byte { return f.raw.Bytes32() }

// FxFromBytes32 decodes a value encoded by Bytes32.
func FxFromBytes32(b [32]byte) Fx {
	var f Fx
	f.raw.SetBytes32(b[:])
	return f
}

// AbsDiff returns |f - rhs|.
func (f Fx) AbsDiff(rhs Fx) Fx {
	if f.Cmp(rhs) >= 0 {
		d, _ := f.Sub(rhs)
		return d
	}
	d, _ := rhs.Sub(f)
	return d
}

// FromRatio builds numer/denom as a fixed-point value, matching the
// original implementation's test helper of the same name. Reports false
// if denom is zero or the ratio overflows.
func FromRatio(numer, denom uint64) (Fx, bool) {
	return FromInteger(numer).Div(FromInteger(denom))
}

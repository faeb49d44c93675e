// Package strategy ships the two concrete vault.Strategy adapters:
// GenericLST, which redeems instantly against an externally-reported
// redemption rate, and RemotePOS, which delegates custody to
// core/remotepos's reconcile FSM.
package strategy

import (
	"fmt"

	"synthub/core/chain"
	"synthub/core/numerics"
)

// RedemptionRate is the current LST-to-underlying exchange rate, as
// reported by an external oracle.
type RedemptionRate struct {
	rate numerics.Fx
}

// NewRedemptionRate wraps a raw fixed-point rate. rate must be
// strictly positive; a zero or unset rate cannot be inverted for
// underlying-to-LST conversion.
func NewRedemptionRate(rate numerics.Fx) (RedemptionRate, error) {
	if rate.IsZero() {
		return RedemptionRate{}, fmt.Errorf("%w: redemption rate cannot be zero", chain.ErrInvalidConfig)
	}
	return RedemptionRate{rate: rate}, nil
}

// LstToUnderlying converts an LST-denominated amount into underlying
// value: floor(amount * rate).
func (r RedemptionRate) LstToUnderlying(amount uint64) (uint64, error) {
	product, ok := numerics.FromInteger(amount).Mul(r.rate)
	if !ok {
		return 0, fmt.Errorf("%w: redemption rate conversion overflow", chain.ErrInvariantBroken)
	}
	value, err := product.Floor()
	if err != nil {
		return 0, err
	}
	return value, nil
}

// UnderlyingToLst converts an underlying value into the LST amount
// whose redemption yields it: floor(value / rate).
func (r RedemptionRate) UnderlyingToLst(value uint64) (uint64, error) {
	quotient, ok := numerics.FromInteger(value).Div(r.rate)
	if !ok {
		return 0, fmt.Errorf("%w: redemption rate conversion overflow", chain.ErrInvariantBroken)
	}
	amount, err := quotient.Floor()
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// RateOracle reports the current redemption rate for a vault's LST.
// Strategy adapters query it fresh on every call rather than caching,
// matching the teacher's pattern of constructing a Strategy bound to
// the current block's queried rate rather than a stored one.
type RateOracle interface {
	Rate() (RedemptionRate, error)
}

// StaticRate is a RateOracle that always reports the same rate,
// useful for LSTs with no live redemption-rate feed (fixed 1:1 wrapped
// assets) and for tests.
type StaticRate struct {
	rate RedemptionRate
}

// NewStaticRate wraps a fixed rate as a RateOracle.
func NewStaticRate(rate RedemptionRate) StaticRate { return StaticRate{rate: rate} }

// Rate implements RateOracle.
func (s StaticRate) Rate() (RedemptionRate, error) { return s.rate, nil }

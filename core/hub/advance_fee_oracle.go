package hub

import "synthub/core/chain"

// AdvanceFeeOracle optionally overrides a vault's advance fee for a
// specific recipient, queried fresh on every Advance call rather than
// cached, matching the strategy.RateOracle convention of always
// reading the current value instead of a stored one. Returning
// ok=false means the oracle has no opinion for this recipient and
// Advance falls back to the vault's fixed_advance_fee.
type AdvanceFeeOracle interface {
	AdvanceFee(recipient chain.Address) (bps uint64, ok bool, err error)
}

// StaticAdvanceFeeOracle always reports the same bps for every
// recipient. Useful for tests and for vaults whose oracle is really
// just a second fixed rate.
type StaticAdvanceFeeOracle struct {
	Bps uint64
}

// AdvanceFee implements AdvanceFeeOracle.
func (s StaticAdvanceFeeOracle) AdvanceFee(chain.Address) (uint64, bool, error) {
	return s.Bps, true, nil
}

package remotepos

import (
	"math/bits"

	"synthub/core/numerics"
)

// computeFeeBps implements the Delegate-phase fee schedule: no fee
// until fee_payout_cooldown blocks have elapsed since the last
// successful reconcile, then it ramps linearly by
// fee_bps_block_increment per block beyond the cooldown, capped at
// max_fee_bps.
func computeFeeBps(cfg Config, lastReconcileHeight, currentHeight uint64) uint64 {
	if cfg.FeeRecipient == nil || cfg.MaxFeeBps == 0 {
		return 0
	}
	elapsed := absDiffU64(lastReconcileHeight, currentHeight)
	if cfg.FeePayoutCooldown >= elapsed {
		return 0
	}
	calculated := cfg.FeeBpsBlockIncrement * absDiffU64(elapsed, cfg.FeePayoutCooldown)
	if calculated > cfg.MaxFeeBps {
		return cfg.MaxFeeBps
	}
	return calculated
}

// applyFeeBps returns floor(balance * bps / 10000).
func applyFeeBps(bps uint64, balance uint64) uint64 {
	if bps > numerics.HundredPercentBps {
		return 0
	}
	// bps <= 10000 keeps the high word below the divisor.
	hi, lo := bits.Mul64(balance, bps)
	q, _ := bits.Div64(hi, lo, numerics.HundredPercentBps)
	return q
}

func absDiffU64(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

package numerics

// HundredPercentBps is the basis-point denominator for Weight
// construction from a fee/share expressed in basis points.
const HundredPercentBps = 10_000

// Weight is a fraction in [0, 1] represented as an Fx, used to split a
// balance across validator slots or to carry a fee rate.
type Weight struct {
	fx Fx
}

// WeightFromBps builds a Weight from a basis-point value. Reports false
// if bps exceeds HundredPercentBps.
func WeightFromBps(bps uint64) (Weight, bool) {
	if bps > HundredPercentBps {
		return Weight{}, false
	}
	fx, ok := FromRatio(bps, HundredPercentBps)
	if !ok {
		return Weight{}, false
	}
	return Weight{fx: fx}, true
}

// WeightFromFraction builds numer/denom as a Weight. Reports false if
// numer > denom (a Weight can never exceed 1) or denom is zero.
func WeightFromFraction(numer, denom uint64) (Weight, bool) {
	if numer > denom {
		return Weight{}, false
	}
	if numer == 0 {
		return Weight{}, true
	}
	fx, ok := FromRatio(numer, denom)
	if !ok {
		return Weight{}, false
	}
	return Weight{fx: fx}, true
}

// Apply scales balance by the weight, rounding towards zero.
func (w Weight) Apply(balance uint64) uint64 {
	if balance == 0 {
		return 0
	}
	scaled, ok := w.fx.Mul(FromInteger(balance))
	if !ok {
		// A correctly constructed Weight is always <= 1, so scaling a
		// uint64 balance can never overflow the 256-bit intermediate.
		return 0
	}
	out, err := scaled.Floor()
	if err != nil {
		return 0
	}
	return out
}

// IsZero reports whether the weight is exactly zero.
func (w Weight) IsZero() bool { return w.fx.IsZero() }

// Weights is a validated set of Weight summing to at most one, used to
// split a balance across a fixed number of validator slots.
type Weights struct {
	items []Weight
}

// NewWeights validates that the provided weights sum to at most 1 and
// wraps them. Returns false if the set is empty or sums past 1.
func NewWeights(weights []Weight) (Weights, bool) {
	if len(weights) == 0 {
		return Weights{}, false
	}
	total := FromInteger(0)
	one := FromInteger(1)
	for _, w := range weights {
		sum, err := total.Add(w.fx)
		if err != nil {
			return Weights{}, false
		}
		total = sum
		if total.Cmp(one) > 0 {
			return Weights{}, false
		}
	}
	cpy := make([]Weight, len(weights))
	copy(cpy, weights)
	return Weights{items: cpy}, true
}

// NewWeightsUnchecked wraps weights without validating their sum, for
// callers that have already established the invariant (e.g. decoding
// from storage that was validated on write).
func NewWeightsUnchecked(weights []Weight) Weights {
	cpy := make([]Weight, len(weights))
	copy(cpy, weights)
	return Weights{items: cpy}
}

// AsSlice exposes the underlying weights in order.
func (w Weights) AsSlice() []Weight { return w.items }

// SplitBalance divides balance across every slot according to the
// weights, without rescaling. The returned total can be less than
// balance due to floor rounding in each slot; the gap is the dust left
// unallocated for this round.
func (w Weights) SplitBalance(balance uint64) (uint64, []uint64) {
	return splitAccordingToWeights(w.items, balance)
}

// SplitSubsetBalance splits balance across only the given subset of
// weights (e.g. the validators actually active in this round),
// rescaling them so their sum is as close to 1 as floor-division
// allows. Used when a reconcile round only touches part of the
// validator set.
func SplitSubsetBalance(subset []Weight, balance uint64) (uint64, []uint64) {
	total := FromInteger(0)
	for _, w := range subset {
		sum, err := total.Add(w.fx)
		if err != nil {
			return 0, make([]uint64, len(subset))
		}
		total = sum
	}
	if total.IsZero() {
		return 0, make([]uint64, len(subset))
	}
	scaled := make([]Weight, len(subset))
	for i, w := range subset {
		q, ok := w.fx.Div(total)
		if !ok {
			return 0, make([]uint64, len(subset))
		}
		scaled[i] = Weight{fx: q}
	}
	return splitAccordingToWeights(scaled, balance)
}

func splitAccordingToWeights(weights []Weight, balance uint64) (uint64, []uint64) {
	allocations := make([]uint64, len(weights))
	if balance == 0 {
		return 0, allocations
	}
	var totalAllocated uint64
	for i, w := range weights {
		slot := w.Apply(balance)
		allocations[i] = slot
		totalAllocated += slot
	}
	return totalAllocated, allocations
}

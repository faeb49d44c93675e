package numerics

import "testing"

func TestWeightFromBps(t *testing.T) {
	w, ok := WeightFromBps(2500)
	if !ok {
		t.Fatalf("WeightFromBps(2500) should succeed")
	}
	if got := w.Apply(1000); got != 250 {
		t.Fatalf("25%% of 1000 = %d, want 250", got)
	}
	if _, ok := WeightFromBps(10001); ok {
		t.Fatalf("WeightFromBps(10001) should fail, exceeds 100%%")
	}
}

func TestWeightFromFractionRejectsNumerGreaterThanDenom(t *testing.T) {
	if _, ok := WeightFromFraction(3, 2); ok {
		t.Fatalf("numer > denom must be rejected")
	}
}

func TestWeightApplyRoundsTowardZero(t *testing.T) {
	w, ok := WeightFromFraction(1, 3)
	if !ok {
		t.Fatalf("WeightFromFraction(1,3) failed")
	}
	if got := w.Apply(10); got != 3 {
		t.Fatalf("1/3 of 10 should floor to 3, got %d", got)
	}
}

func TestNewWeightsRejectsOverOne(t *testing.T) {
	w1, _ := WeightFromBps(6000)
	w2, _ := WeightFromBps(5000)
	if _, ok := NewWeights([]Weight{w1, w2}); ok {
		t.Fatalf("weights summing past 1.0 must be rejected")
	}
}

func TestWeightsSplitBalanceNoScaling(t *testing.T) {
	wA, _ := WeightFromBps(5000)
	wB, _ := WeightFromBps(5000)
	ws, ok := NewWeights([]Weight{wA, wB})
	if !ok {
		t.Fatalf("NewWeights failed")
	}
	total, allocs := ws.SplitBalance(101)
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocs))
	}
	if allocs[0] != 50 || allocs[1] != 50 {
		t.Fatalf("expected [50 50], got %v", allocs)
	}
	if total != 100 {
		t.Fatalf("total allocated should be 100 (1 unit dust from rounding), got %d", total)
	}
}

func TestWeightsSplitBalanceZero(t *testing.T) {
	wA, _ := WeightFromBps(5000)
	ws, _ := NewWeights([]Weight{wA})
	total, allocs := ws.SplitBalance(0)
	if total != 0 || allocs[0] != 0 {
		t.Fatalf("splitting zero balance must yield zero allocations")
	}
}

func TestSplitSubsetBalanceRescales(t *testing.T) {
	// Three validators each weighted 1/3 of the total set, but only two
	// are active this round: their subset should be rescaled so the
	// pair absorbs close to the full balance instead of 2/3 of it.
	wA, _ := WeightFromFraction(1, 3)
	wB, _ := WeightFromFraction(1, 3)

	total, allocs := SplitSubsetBalance([]Weight{wA, wB}, 100)
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocs))
	}
	if allocs[0] != 50 || allocs[1] != 50 {
		t.Fatalf("rescaled subset should split evenly, got %v", allocs)
	}
	if total != 100 {
		t.Fatalf("rescaled subset should allocate the full balance, got %d", total)
	}
}

func TestSplitSubsetBalanceAllZeroWeights(t *testing.T) {
	total, allocs := SplitSubsetBalance(nil, 100)
	if total != 0 || len(allocs) != 0 {
		t.Fatalf("empty subset should allocate nothing")
	}
}

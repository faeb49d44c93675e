package numerics

import "testing"

func mustRatio(t *testing.T, numer, denom uint64) Fx {
	t.Helper()
	fx, ok := FromRatio(numer, denom)
	if !ok {
		t.Fatalf("FromRatio(%d, %d) failed", numer, denom)
	}
	return fx
}

func TestFxAdd(t *testing.T) {
	half := mustRatio(t, 1, 2)
	quarter := mustRatio(t, 1, 4)
	threeQuarters := mustRatio(t, 3, 4)
	one := FromInteger(1)
	zero := FromInteger(0)

	if sum, err := half.Add(half); err != nil || sum.Cmp(one) != 0 {
		t.Fatalf("half+half should equal one, got %v err=%v", sum, err)
	}
	if sum, err := threeQuarters.Add(quarter); err != nil || sum.Cmp(one) != 0 {
		t.Fatalf("3/4+1/4 should equal one, got %v err=%v", sum, err)
	}
	if sum, err := zero.Add(zero); err != nil || sum.Cmp(zero) != 0 {
		t.Fatalf("zero+zero should equal zero")
	}
}

func TestFxAddOverflow(t *testing.T) {
	max := Fx{}
	max.raw.SetAllOne()
	if _, err := max.Add(max); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestFxSub(t *testing.T) {
	half := mustRatio(t, 1, 2)
	quarter := mustRatio(t, 1, 4)
	threeQuarters := mustRatio(t, 3, 4)
	one := FromInteger(1)

	if diff, err := one.Sub(half); err != nil || diff.Cmp(half) != 0 {
		t.Fatalf("1 - 1/2 should equal 1/2")
	}
	if diff, err := threeQuarters.Sub(half); err != nil || diff.Cmp(quarter) != 0 {
		t.Fatalf("3/4 - 1/2 should equal 1/4")
	}
	if _, err := half.Sub(threeQuarters); err == nil {
		t.Fatalf("expected underflow error for 1/2 - 3/4")
	}
}

func TestFxMul(t *testing.T) {
	half := mustRatio(t, 1, 2)
	quarter := mustRatio(t, 1, 4)
	one := FromInteger(1)
	zero := FromInteger(0)

	if got, ok := half.Mul(half); !ok || got.Cmp(quarter) != 0 {
		t.Fatalf("1/2 * 1/2 should equal 1/4, got %v", got)
	}
	if got, ok := one.Mul(half); !ok || got.Cmp(half) != 0 {
		t.Fatalf("1 * 1/2 should equal 1/2")
	}
	if got, ok := one.Mul(zero); !ok || !got.IsZero() {
		t.Fatalf("1 * 0 should equal 0")
	}
}

func TestFxDiv(t *testing.T) {
	half := mustRatio(t, 1, 2)
	two := FromInteger(2)
	one := FromInteger(1)
	zero := FromInteger(0)

	if got, ok := one.Div(half); !ok || got.Cmp(two) != 0 {
		t.Fatalf("1 / (1/2) should equal 2, got %v", got)
	}
	if got, ok := one.Div(two); !ok || got.Cmp(half) != 0 {
		t.Fatalf("1 / 2 should equal 1/2")
	}
	if _, ok := one.Div(zero); ok {
		t.Fatalf("division by zero should fail")
	}
}

func TestFxFloor(t *testing.T) {
	v := FromInteger(42)
	got, err := v.Floor()
	if err != nil || got != 42 {
		t.Fatalf("Floor(42) = %d, %v", got, err)
	}
	half := mustRatio(t, 3, 2)
	got, err = half.Floor()
	if err != nil || got != 1 {
		t.Fatalf("Floor(3/2) = %d, want 1", got)
	}
}

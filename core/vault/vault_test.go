package vault

import (
	"testing"

	"synthub/core/chain"
	"synthub/core/numerics"
	"synthub/core/store"
)

// fixedRateStrategy reports a constant strategy.RedemptionRate-shaped
// rate without importing core/strategy, so these tests can exercise
// Vault against a minimal Strategy double instead of pulling in the
// strategy package's own redemption-rate machinery.
type fixedRateStrategy struct {
	rate      numerics.Fx
	now       uint64
	active    uint64
	claimable uint64
}

func newFixedRateStrategy(rate numerics.Fx, now uint64) *fixedRateStrategy {
	return &fixedRateStrategy{rate: rate, now: now}
}

func (f *fixedRateStrategy) lstToUnderlying(amount uint64) uint64 {
	product, ok := numerics.FromInteger(amount).Mul(f.rate)
	if !ok {
		panic("overflow in test rate conversion")
	}
	v, err := product.Floor()
	if err != nil {
		panic(err)
	}
	return v
}

func (f *fixedRateStrategy) underlyingToLst(value uint64) uint64 {
	quotient, ok := numerics.FromInteger(value).Div(f.rate)
	if !ok {
		panic("overflow in test rate conversion")
	}
	v, err := quotient.Floor()
	if err != nil {
		panic(err)
	}
	return v
}

func (f *fixedRateStrategy) DepositValue(amount uint64) (uint64, error) {
	return f.lstToUnderlying(amount), nil
}

func (f *fixedRateStrategy) TotalDepositsValue() (uint64, error) {
	return f.lstToUnderlying(f.active), nil
}

func (f *fixedRateStrategy) Deposit(amount uint64) (chain.Command, error) {
	f.active += amount
	return chain.Command{Kind: chain.CmdStrategyDeposit, Denom: "stlst", Amount: amount}, nil
}

func (f *fixedRateStrategy) Unbond(value uint64) (UnbondReadyStatus, []chain.Command, error) {
	lstAmount := f.underlyingToLst(value)
	f.active -= lstAmount
	f.claimable += lstAmount
	return UnbondReadyStatus{
		Kind:   Ready,
		Amount: lstAmount,
		Epoch:  Epoch{Start: f.now, End: f.now},
	}, nil, nil
}

func (f *fixedRateStrategy) ClaimAmount(totalUnbondValue uint64, _ Epoch) (uint64, error) {
	return totalUnbondValue, nil
}

func (f *fixedRateStrategy) SendClaimed(amount uint64, recipient chain.Address) (chain.Command, error) {
	f.claimable -= amount
	return chain.Command{Kind: chain.CmdBankSend, Denom: "stlst", Amount: amount, Recipient: recipient}, nil
}

func recipientAddr(b byte) chain.Address {
	var a chain.Address
	a[0] = b
	return a
}

// TestDepositGenericLSTScenario reproduces the literal rate=1.1,
// 1000-LST-deposit walkthrough: the deposit values and minted share
// count are exact regardless of fixed-point width, since 1000*1.1=1100
// has no fractional remainder.
func TestDepositGenericLSTScenario(t *testing.T) {
	s := store.New()
	rate, ok := numerics.FromRatio(11, 10)
	if !ok {
		t.Fatalf("FromRatio(11,10) failed")
	}
	strat := newFixedRateStrategy(rate, 1000)
	v := New(s, "v1", strat, "stlst")

	result, cmds, err := v.Deposit("stlst", 1000, recipientAddr(0x01))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if result.DepositValue != 1100 {
		t.Fatalf("DepositValue = %d, want 1100", result.DepositValue)
	}
	if result.Minted != 1100*SharePrecisionMultiplier {
		t.Fatalf("Minted = %d, want %d", result.Minted, 1100*SharePrecisionMultiplier)
	}
	if result.TotalDepositsValue != 1100 {
		t.Fatalf("TotalDepositsValue = %d, want 1100", result.TotalDepositsValue)
	}
	if strat.active != 1000 {
		t.Fatalf("active lst balance = %d, want 1000", strat.active)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected a strategy deposit command and a mint command, got %d", len(cmds))
	}
	if cmds[1].Kind != chain.CmdMint || cmds[1].Amount != result.Minted {
		t.Fatalf("unexpected mint command %+v", cmds[1])
	}
}

// TestRedeemGenericLSTScenario continues the above deposit and redeems
// half the minted shares. Unlike the original CosmWasm contract, which
// computes the inverse redemption rate as an independently-rounded
// 18-decimal Decimal before multiplying (producing a 501/499 split
// instead of the mathematically exact 500/500), this module's 128.128
// fixed-point rate carries enough precision that the same redemption
// lands on the exact split. See DESIGN.md for the full comparison.
func TestRedeemGenericLSTScenario(t *testing.T) {
	s := store.New()
	rate, ok := numerics.FromRatio(11, 10)
	if !ok {
		t.Fatalf("FromRatio(11,10) failed")
	}
	strat := newFixedRateStrategy(rate, 1000)
	v := New(s, "v1", strat, "stlst")

	if _, _, err := v.Deposit("stlst", 1000, recipientAddr(0x01)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	recipient := recipientAddr(0x02)
	outcome, cmds, err := v.Redeem(550*SharePrecisionMultiplier, recipient)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if !outcome.Ready {
		t.Fatalf("expected GenericLST redemption to settle immediately")
	}
	if outcome.Settlement != 500 {
		t.Fatalf("Settlement = %d, want 500", outcome.Settlement)
	}
	if strat.active != 500 {
		t.Fatalf("active lst balance after redeem = %d, want 500", strat.active)
	}
	if strat.claimable != 500 {
		t.Fatalf("claimable lst balance after redeem = %d, want 500", strat.claimable)
	}
	remaining := v.TotalSharesIssued()
	if remaining != 550*SharePrecisionMultiplier {
		t.Fatalf("remaining shares = %d, want %d", remaining, 550*SharePrecisionMultiplier)
	}
	if len(cmds) != 1 || cmds[0].Kind != chain.CmdBurn || cmds[0].Amount != 550*SharePrecisionMultiplier {
		t.Fatalf("unexpected burn command set %+v", cmds)
	}

	totalDepositsValue, err := v.TotalDepositsValue()
	if err != nil {
		t.Fatalf("TotalDepositsValue: %v", err)
	}
	if totalDepositsValue != 550 {
		t.Fatalf("TotalDepositsValue after redeem = %d, want 550", totalDepositsValue)
	}
}

// TestClaimGenericLSTScenario commits the pending batch from the redeem
// above and confirms Claim releases exactly the settled amount.
func TestClaimGenericLSTScenario(t *testing.T) {
	s := store.New()
	rate, ok := numerics.FromRatio(11, 10)
	if !ok {
		t.Fatalf("FromRatio(11,10) failed")
	}
	strat := newFixedRateStrategy(rate, 1000)
	v := New(s, "v1", strat, "stlst")

	if _, _, err := v.Deposit("stlst", 1000, recipientAddr(0x01)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	recipient := recipientAddr(0x02)
	if _, _, err := v.Redeem(550*SharePrecisionMultiplier, recipient); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	if _, err := v.StartUnbond(1000); err != nil {
		t.Fatalf("StartUnbond: %v", err)
	}

	claimed, cmds, err := v.Claim(recipient, 1000)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed != 500 {
		t.Fatalf("claimed = %d, want 500", claimed)
	}
	if len(cmds) != 1 || cmds[0].Amount != 500 || cmds[0].Recipient != recipient {
		t.Fatalf("unexpected send-claimed command %+v", cmds)
	}
	if strat.claimable != 0 {
		t.Fatalf("claimable lst balance after claim = %d, want 0", strat.claimable)
	}

	// A second claim before any new batch commits is a no-op.
	claimedAgain, cmdsAgain, err := v.Claim(recipient, 1000)
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if claimedAgain != 0 || cmdsAgain != nil {
		t.Fatalf("expected second claim to be a no-op, got %d, %v", claimedAgain, cmdsAgain)
	}
}

// TestDepositRejectsWrongAsset confirms the vault refuses deposits in
// any denom other than the one it was configured for.
func TestDepositRejectsWrongAsset(t *testing.T) {
	s := store.New()
	rate, ok := numerics.FromRatio(1, 1)
	if !ok {
		t.Fatalf("FromRatio(1,1) failed")
	}
	strat := newFixedRateStrategy(rate, 0)
	v := New(s, "v1", strat, "stlst")

	if _, _, err := v.Deposit("wrongdenom", 10, recipientAddr(0x01)); err == nil {
		t.Fatalf("expected rejection of a deposit in the wrong denom")
	}
}

// TestRedeemRejectsMoreThanOutstandingShares confirms over-redemption
// is rejected rather than silently clamped.
func TestRedeemRejectsMoreThanOutstandingShares(t *testing.T) {
	s := store.New()
	rate, ok := numerics.FromRatio(1, 1)
	if !ok {
		t.Fatalf("FromRatio(1,1) failed")
	}
	strat := newFixedRateStrategy(rate, 0)
	v := New(s, "v1", strat, "stlst")

	if _, _, err := v.Deposit("stlst", 100, recipientAddr(0x01)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, _, err := v.Redeem(100*SharePrecisionMultiplier+1, recipientAddr(0x02)); err == nil {
		t.Fatalf("expected rejection of a redeem exceeding outstanding shares")
	}
}

package strategy

import (
	"testing"

	"synthub/core/chain"
	"synthub/core/numerics"
	"synthub/core/store"
	"synthub/core/vault"
)

func oneToOneRate(t *testing.T) RateOracle {
	t.Helper()
	rate, ok := numerics.FromRatio(1, 1)
	if !ok {
		t.Fatalf("FromRatio(1,1) failed")
	}
	rr, err := NewRedemptionRate(rate)
	if err != nil {
		t.Fatalf("NewRedemptionRate: %v", err)
	}
	return NewStaticRate(rr)
}

func TestGenericLSTDepositThenUnbondIsImmediatelyReady(t *testing.T) {
	s := store.New()
	g := NewGenericLST(s, "v1", "stlst", oneToOneRate(t), func() uint64 { return 42 })

	if _, err := g.Deposit(100); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	total, err := g.TotalDepositsValue()
	if err != nil || total != 100 {
		t.Fatalf("TotalDepositsValue = %d, %v; want 100", total, err)
	}

	status, cmds, err := g.Unbond(40)
	if err != nil {
		t.Fatalf("Unbond: %v", err)
	}
	if status.Kind != vault.Ready {
		t.Fatalf("expected Ready, got %v", status.Kind)
	}
	if status.Epoch.Start != 42 || status.Epoch.End != 42 {
		t.Fatalf("expected degenerate epoch at now=42, got %+v", status.Epoch)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected no commands from Unbond, got %v", cmds)
	}

	claimable, err := g.ClaimAmount(status.Amount, status.Epoch)
	if err != nil || claimable != status.Amount {
		t.Fatalf("ClaimAmount = %d, %v; want %d", claimable, err, status.Amount)
	}

	cmd, err := g.SendClaimed(claimable, chain.Address{0x01})
	if err != nil {
		t.Fatalf("SendClaimed: %v", err)
	}
	if cmd.Amount != claimable {
		t.Fatalf("SendClaimed amount = %d, want %d", cmd.Amount, claimable)
	}
}

func TestGenericLSTUnbondMoreThanActiveFails(t *testing.T) {
	s := store.New()
	g := NewGenericLST(s, "v1", "stlst", oneToOneRate(t), func() uint64 { return 0 })
	if _, err := g.Deposit(10); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, _, err := g.Unbond(20); err == nil {
		t.Fatalf("expected error unbonding more than active balance")
	}
}

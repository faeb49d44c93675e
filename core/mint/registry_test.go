package mint

import (
	"errors"
	"testing"

	"synthub/core/chain"
	"synthub/core/store"
)

func adminAddr() chain.Address { var a chain.Address; a[0] = 0xAD; return a }
func minterAddr() chain.Address { var a chain.Address; a[0] = 0x11; return a }
func userAddr() chain.Address   { var a chain.Address; a[0] = 0x22; return a }

func newTestRegistry(t *testing.T) (*Registry, chain.Address) {
	t.Helper()
	r := New(store.New())
	admin := adminAddr()
	if err := r.access.Grant(admin, AdminRole); err != nil {
		t.Fatalf("seed admin role: %v", err)
	}
	return r, admin
}

func TestCreateSyntheticRejectsDuplicateTicker(t *testing.T) {
	r, admin := newTestRegistry(t)
	ticker := chain.NewTicker("SYNUSD")
	if _, err := r.CreateSynthetic(admin, ticker, 6); err != nil {
		t.Fatalf("CreateSynthetic: %v", err)
	}
	if _, err := r.CreateSynthetic(admin, ticker, 6); !errors.Is(err, chain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateSyntheticRequiresAdmin(t *testing.T) {
	r := New(store.New())
	if _, err := r.CreateSynthetic(userAddr(), chain.NewTicker("synusd"), 6); !errors.Is(err, chain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMintRequiresWhitelisting(t *testing.T) {
	r, admin := newTestRegistry(t)
	denom, err := r.CreateSynthetic(admin, chain.NewTicker("synusd"), 6)
	if err != nil {
		t.Fatalf("CreateSynthetic: %v", err)
	}
	minter := minterAddr()
	if _, err := r.Mint(minter, denom, 100, userAddr()); !errors.Is(err, chain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized before whitelisting, got %v", err)
	}

	if err := r.SetWhitelisted(admin, minter, denom, true); err != nil {
		t.Fatalf("SetWhitelisted: %v", err)
	}
	cmd, err := r.Mint(minter, denom, 100, userAddr())
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if cmd.Kind != chain.CmdMint || cmd.Amount != 100 || cmd.Denom != denom {
		t.Fatalf("unexpected mint command: %+v", cmd)
	}

	if err := r.SetWhitelisted(admin, minter, denom, false); err != nil {
		t.Fatalf("SetWhitelisted(false): %v", err)
	}
	if _, err := r.Mint(minter, denom, 100, userAddr()); !errors.Is(err, chain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after de-whitelisting, got %v", err)
	}
}

func TestBurnRequiresExistingSynthetic(t *testing.T) {
	r := New(store.New())
	if _, err := r.Burn(userAddr(), "nope", 1); !errors.Is(err, chain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBurnIsPermissionless(t *testing.T) {
	r, admin := newTestRegistry(t)
	denom, err := r.CreateSynthetic(admin, chain.NewTicker("synusd"), 6)
	if err != nil {
		t.Fatalf("CreateSynthetic: %v", err)
	}
	cmd, err := r.Burn(userAddr(), denom, 50)
	if err != nil {
		t.Fatalf("Burn: %v", err)
	}
	if cmd.Kind != chain.CmdBurn || cmd.Amount != 50 {
		t.Fatalf("unexpected burn command: %+v", cmd)
	}
}

func TestDecimalsRoundtrip(t *testing.T) {
	r, admin := newTestRegistry(t)
	denom, err := r.CreateSynthetic(admin, chain.NewTicker("synusd"), 9)
	if err != nil {
		t.Fatalf("CreateSynthetic: %v", err)
	}
	d, err := r.Decimals(denom)
	if err != nil {
		t.Fatalf("Decimals: %v", err)
	}
	if d != 9 {
		t.Fatalf("expected decimals=9, got %d", d)
	}
}

package hub

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"synthub/core/chain"
	"synthub/core/mint"
	"synthub/core/vault"
)

// AdminRole is the role required for vault registration and config
// changes.
const AdminRole = "hub_admin"

// Engine is the balance-sheet engine for every registered vault. One
// Engine instance serves the whole hub; vaults are distinguished by
// chain.VaultID.
type Engine struct {
	store  chain.StateRW
	access *chain.AccessController
	mint   *mint.Registry
	vaults map[chain.VaultID]*vault.Vault
	log    *logrus.Logger

	// advanceFeeOracles holds each vault's live advance-fee oracle
	// client, keyed the same way as vaults. Like vaults itself, this is
	// wiring the engine is constructed with, not config data: it cannot
	// round-trip through the JSON-backed VaultConfig store.
	advanceFeeOracles map[chain.VaultID]AdvanceFeeOracle
}

// New constructs an Engine backed by store, issuing synthetics through
// mintRegistry. lg must not be nil; pass logrus.StandardLogger() for
// default behavior.
func New(store chain.StateRW, mintRegistry *mint.Registry, lg *logrus.Logger) *Engine {
	return &Engine{
		store:             store,
		access:            chain.NewAccessController(store),
		mint:              mintRegistry,
		vaults:            make(map[chain.VaultID]*vault.Vault),
		advanceFeeOracles: make(map[chain.VaultID]AdvanceFeeOracle),
		log:               lg,
	}
}

// RegisterVault binds a live *vault.Vault to the engine and seeds its
// balance-sheet config. Requires the admin role.
func (e *Engine) RegisterVault(admin chain.Address, v *vault.Vault, cfg VaultConfig) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	if _, exists := e.vaults[v.ID()]; exists {
		return fmt.Errorf("%w: vault %s already registered", chain.ErrAlreadyExists, v.ID())
	}
	if err := validateVaultConfig(cfg); err != nil {
		return err
	}
	e.vaults[v.ID()] = v
	if err := setJSON(e.store, configKey(v.ID()), cfg); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"vault": v.ID(), "synthetic": cfg.Synthetic}).Info("vault registered")
	return nil
}

func validateVaultConfig(cfg VaultConfig) error {
	if cfg.MaxLTVBps > 10000 {
		return fmt.Errorf("%w: max_ltv exceeds 100%%", chain.ErrInvalidConfig)
	}
	if cfg.CollateralYieldFeeBps > 10000 || cfg.ReserveYieldFeeBps > 10000 || cfg.AmoAllocationBps > 10000 {
		return fmt.Errorf("%w: fee/allocation basis points exceed 100%%", chain.ErrInvalidConfig)
	}
	if cfg.FixedAdvanceFeeBps > MaxAdvanceFeeBps {
		return fmt.Errorf("%w: fixed_advance_fee exceeds %d bps cap", chain.ErrInvalidConfig, MaxAdvanceFeeBps)
	}
	return nil
}

func (e *Engine) vaultByID(id chain.VaultID) (*vault.Vault, error) {
	v, ok := e.vaults[id]
	if !ok {
		return nil, fmt.Errorf("%w: vault %s not registered", chain.ErrNotFound, id)
	}
	return v, nil
}

func (e *Engine) config(id chain.VaultID) (VaultConfig, error) {
	var cfg VaultConfig
	ok, err := getJSON(e.store, configKey(id), &cfg)
	if err != nil {
		return VaultConfig{}, err
	}
	if !ok {
		return VaultConfig{}, fmt.Errorf("%w: vault %s not registered", chain.ErrNotFound, id)
	}
	return cfg, nil
}

func (e *Engine) setConfig(id chain.VaultID, cfg VaultConfig) error {
	return setJSON(e.store, configKey(id), cfg)
}

// SetDepositsEnabled toggles whether Deposit and Mint accept new funds
// for the vault; RepayUnderlying is not gated by it. Requires the admin
// role.
func (e *Engine) SetDepositsEnabled(admin chain.Address, id chain.VaultID, enabled bool) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	cfg.DepositsEnabled = enabled
	return e.setConfig(id, cfg)
}

// SetAdvanceEnabled toggles whether advance accepts new borrows.
// Requires the admin role.
func (e *Engine) SetAdvanceEnabled(admin chain.Address, id chain.VaultID, enabled bool) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	cfg.AdvanceEnabled = enabled
	return e.setConfig(id, cfg)
}

// SetMaxLTV sets the vault's maximum loan-to-value, in basis points.
// Requires the admin role.
func (e *Engine) SetMaxLTV(admin chain.Address, id chain.VaultID, bps uint64) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	if bps > 10000 {
		return fmt.Errorf("%w: max_ltv exceeds 100%%", chain.ErrInvalidConfig)
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	cfg.MaxLTVBps = bps
	return e.setConfig(id, cfg)
}

// SetYieldFees sets the collateral- and reserve-yield fee basis
// points. Requires the admin role.
func (e *Engine) SetYieldFees(admin chain.Address, id chain.VaultID, collateralBps, reserveBps uint64) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	if collateralBps > 10000 || reserveBps > 10000 {
		return fmt.Errorf("%w: yield fee exceeds 100%%", chain.ErrInvalidConfig)
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	cfg.CollateralYieldFeeBps = collateralBps
	cfg.ReserveYieldFeeBps = reserveBps
	return e.setConfig(id, cfg)
}

// SetFixedAdvanceFee sets the flat advance fee, capped at
// MaxAdvanceFeeBps. Requires the admin role.
func (e *Engine) SetFixedAdvanceFee(admin chain.Address, id chain.VaultID, bps uint64) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	if bps > MaxAdvanceFeeBps {
		return fmt.Errorf("%w: fixed_advance_fee exceeds %d bps cap", chain.ErrInvalidConfig, MaxAdvanceFeeBps)
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	cfg.FixedAdvanceFeeBps = bps
	return e.setConfig(id, cfg)
}

// SetAdvanceFeeOracle wires (or clears, passing nil) a vault's
// per-recipient advance-fee oracle. When set, Advance consults it
// before falling back to FixedAdvanceFeeBps; either source is still
// clamped to MaxAdvanceFeeBps. Requires the admin role and an already
// registered vault.
func (e *Engine) SetAdvanceFeeOracle(admin chain.Address, id chain.VaultID, oracle AdvanceFeeOracle) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	if _, err := e.vaultByID(id); err != nil {
		return err
	}
	if oracle == nil {
		delete(e.advanceFeeOracles, id)
		return nil
	}
	e.advanceFeeOracles[id] = oracle
	return nil
}

// SetProxies sets the deposit/advance/redeem/mint proxy addresses. A
// nil pointer clears that proxy. Requires the admin role.
func (e *Engine) SetProxies(admin chain.Address, id chain.VaultID, deposit, advance, redeem, mintProxy *chain.Address) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	cfg.DepositProxy = deposit
	cfg.AdvanceProxy = advance
	cfg.RedeemProxy = redeem
	cfg.MintProxy = mintProxy
	return e.setConfig(id, cfg)
}

// SetTreasuryAndAmo sets the vault's AMO address and advance-fee
// recipient, plus the hub-wide treasury address. Requires the admin
// role.
func (e *Engine) SetTreasuryAndAmo(admin chain.Address, id chain.VaultID, treasury chain.Address, amo, advanceFeeRecipient *chain.Address, amoAllocationBps uint64) error {
	if err := e.access.Require(admin, AdminRole); err != nil {
		return err
	}
	if amoAllocationBps > 10000 {
		return fmt.Errorf("%w: amo_allocation exceeds 100%%", chain.ErrInvalidConfig)
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	cfg.AMO = amo
	cfg.AdvanceFeeRecipient = advanceFeeRecipient
	cfg.AmoAllocationBps = amoAllocationBps
	if err := e.setConfig(id, cfg); err != nil {
		return err
	}
	return setJSON(e.store, globalKey(), GlobalConfig{Treasury: treasury})
}

// VaultMetadata is the read-only view of a vault's config and live
// balance sheet, used by query handlers.
type VaultMetadata struct {
	Config       VaultConfig
	BalanceSheet BalanceSheet
}

// VaultMetadata returns id's current config and balance sheet.
func (e *Engine) VaultMetadata(id chain.VaultID) (VaultMetadata, error) {
	cfg, err := e.config(id)
	if err != nil {
		return VaultMetadata{}, err
	}
	bs, err := e.balanceSheet(id)
	if err != nil {
		return VaultMetadata{}, err
	}
	return VaultMetadata{Config: cfg, BalanceSheet: bs}, nil
}

// Position returns account's current position against vault id.
func (e *Engine) Position(id chain.VaultID, account chain.Address) (AccountState, error) {
	return e.accountState(id, account)
}

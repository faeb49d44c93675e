// Package hub implements the per-vault balance-sheet engine: collateral,
// debt and credit accounting, yield distribution via a monotonically
// increasing sum-payment-ratio, and the deposit/advance/redeem/mint user
// flows layered on top of core/vault.
package hub

import "synthub/core/chain"

// VaultConfig holds a registered vault's admin-controlled parameters.
// Fee/allocation fields are basis points in [0,10000], enforced at the
// setter.
type VaultConfig struct {
	DepositsEnabled bool
	AdvanceEnabled  bool

	MaxLTVBps             uint64
	CollateralYieldFeeBps uint64
	ReserveYieldFeeBps    uint64
	FixedAdvanceFeeBps    uint64
	AmoAllocationBps      uint64

	DepositProxy *chain.Address
	AdvanceProxy *chain.Address
	RedeemProxy  *chain.Address
	MintProxy    *chain.Address

	AdvanceFeeRecipient *chain.Address
	AMO                 *chain.Address

	Synthetic chain.Denom
}

// MaxAdvanceFeeBps is the hard ceiling on fixed_advance_fee, per
// spec.md's AdvanceFee::MAX of 50%.
const MaxAdvanceFeeBps = 5000

// BalanceSheet is a vault's scalar hub-side accounting state. Shares
// here are vault shares (core/vault.Vault shares), not hub-issued
// tokens: the hub just buckets a subset of a vault's outstanding
// shares by purpose.
type BalanceSheet struct {
	CollateralShares uint64
	CollateralBalance uint64
	ReserveShares    uint64
	ReserveBalance   uint64
	TreasuryShares   uint64
	AmoShares        uint64

	// OverallSPRRaw is the 128.128 fixed-point sum-payment-ratio,
	// stored as its raw 256-bit encoding (see numerics.Fx.Bytes32).
	OverallSPRRaw [32]byte
}

// AccountState is the per-(vault,account) position.
type AccountState struct {
	Collateral uint64
	Debt       uint64
	Credit     uint64

	// SPRRaw is the account's sum-payment-ratio checkpoint, stored the
	// same way as BalanceSheet.OverallSPRRaw.
	SPRRaw [32]byte
}

// CallbackReason names why a pending callback was stashed.
type CallbackReason int

const (
	CallbackDeposit CallbackReason = iota
	CallbackRepayUnderlying
	CallbackMint
)

// PendingCallback is the single-slot stash the hub keeps between
// issuing a vault-deposit sub-message and finishing the corresponding
// bookkeeping once it confirms. Only one can be outstanding at a time.
type PendingCallback struct {
	Vault        chain.VaultID
	Recipient    chain.Address
	Reason       CallbackReason
	DepositValue uint64
	MintAmount   uint64
}

// GlobalConfig holds hub-wide (not per-vault) addresses.
type GlobalConfig struct {
	Treasury chain.Address
}

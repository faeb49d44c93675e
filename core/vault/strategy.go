package vault

import "synthub/core/chain"

// Epoch marks the unbonding window of a committed batch, in whole
// seconds, as reported by the block clock at the time the batch was
// committed.
type Epoch struct {
	Start uint64
	End   uint64
}

// UnbondReadyStatusKind distinguishes an unbond that settles
// immediately from one whose settlement time is not yet known.
type UnbondReadyStatusKind int

const (
	// Ready means the strategy can report the settled amount and
	// epoch right away (e.g. an instantly-redeemable LST).
	Ready UnbondReadyStatusKind = iota
	// Later means settlement depends on an external process (e.g. a
	// remote unbonding period); the strategy returns a retry hint
	// instead.
	Later
)

// UnbondReadyStatus is the result of asking a Strategy to begin
// unbonding a value. Exactly one of the Ready or Later fields applies,
// selected by Kind.
type UnbondReadyStatus struct {
	Kind UnbondReadyStatusKind

	// Ready fields.
	Amount uint64
	Epoch  Epoch

	// Later fields.
	Hint uint64
}

// Strategy glues a vault's share accounting to the mechanism that
// actually custodies and redeems the underlying asset. core/strategy
// ships two implementations: GenericLST (instant redemption) and
// RemotePOS (delegates to core/remotepos).
type Strategy interface {
	// DepositValue converts a raw deposited amount into underlying
	// value at the strategy's current redemption rate.
	DepositValue(amount uint64) (uint64, error)

	// TotalDepositsValue reports the strategy's total value under
	// management, excluding funds already unbonded for redeemers.
	TotalDepositsValue() (uint64, error)

	// Deposit accounts for newly deposited funds and returns the
	// command that applies the effect.
	Deposit(amount uint64) (chain.Command, error)

	// Unbond begins unbonding the given underlying value, returning
	// whether it settles now or later, plus any commands needed to
	// kick it off.
	Unbond(value uint64) (UnbondReadyStatus, []chain.Command, error)

	// ClaimAmount reports how much of a committed batch's total
	// unbond value is actually claimable, which can differ from the
	// requested value if the strategy applies a haircut.
	ClaimAmount(totalUnbondValue uint64, epoch Epoch) (uint64, error)

	// SendClaimed releases a claimed amount to recipient.
	SendClaimed(amount uint64, recipient chain.Address) (chain.Command, error)
}

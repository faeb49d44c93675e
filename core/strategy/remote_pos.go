package strategy

import (
	"fmt"

	"synthub/core/chain"
	"synthub/core/numerics"
	"synthub/core/remotepos"
	"synthub/core/vault"
)

// RemotePOS is the remote-proof-of-stake strategy adapter: it delegates
// custody to a core/remotepos.FSM and never settles instantly — an
// unbond reports Ready with an epoch that ends only after the remote
// unbonding period plus the FSM's buffer window,
// matching original_source's contracts/vault/remote-pos/strategy.rs.
type RemotePOS struct {
	fsm      *remotepos.FSM
	cfg      remotepos.Config
	asset    chain.Denom
	now      func() uint64
}

// NewRemotePOS constructs a RemotePOS strategy bound to fsm, accepting
// deposits of asset. now supplies the block clock in seconds.
func NewRemotePOS(fsm *remotepos.FSM, cfg remotepos.Config, asset chain.Denom, now func() uint64) *RemotePOS {
	return &RemotePOS{fsm: fsm, cfg: cfg, asset: asset, now: now}
}

// DepositValue implements vault.Strategy. There is no exchange rate
// between the deposit asset and delegated value: 1 unit deposited is 1
// unit of value.
func (r *RemotePOS) DepositValue(amount uint64) (uint64, error) { return amount, nil }

// TotalDepositsValue implements vault.Strategy: delegated plus pending
// deposits, minus value already committed to an unbonding batch.
func (r *RemotePOS) TotalDepositsValue() (uint64, error) {
	delegated, err := r.fsm.Delegated()
	if err != nil {
		return 0, err
	}
	pendingDeposit, pendingUnbond, err := r.fsm.PendingTotals()
	if err != nil {
		return 0, err
	}
	total := delegated + pendingDeposit
	if total < delegated {
		return 0, fmt.Errorf("%w: total deposits value overflow", chain.ErrInvariantBroken)
	}
	if pendingUnbond > total {
		return 0, fmt.Errorf("%w: pending unbond exceeds delegated value", chain.ErrInvariantBroken)
	}
	return total - pendingUnbond, nil
}

// Deposit implements vault.Strategy.
func (r *RemotePOS) Deposit(amount uint64) (chain.Command, error) {
	if err := r.fsm.RequestDeposit(amount); err != nil {
		return chain.Command{}, err
	}
	return chain.Command{Kind: chain.CmdStrategyDeposit, Denom: r.asset, Amount: amount}, nil
}

// Unbond implements vault.Strategy. An unbond already in flight (the
// FSM mid-reconcile) always defers; otherwise the strategy reports a
// Ready epoch sized by the remote unbonding period plus a fee-cooldown
// buffer, unless the minimum unbond interval hasn't yet elapsed since
// the last request.
func (r *RemotePOS) Unbond(value uint64) (vault.UnbondReadyStatus, []chain.Command, error) {
	pending, err := r.fsm.IsPending()
	if err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}
	if pending {
		return vault.UnbondReadyStatus{Kind: vault.Later}, nil, nil
	}

	now := r.now()
	lastTs, hasLast, err := r.fsm.LastUnbondTimestamp()
	if err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}
	if hasLast {
		elapsed := absDiffU64(now, lastTs)
		if elapsed < r.cfg.MinimumUnbondIntervalSeconds {
			return vault.UnbondReadyStatus{Kind: vault.Later, Hint: r.cfg.MinimumUnbondIntervalSeconds - elapsed}, nil, nil
		}
	}

	if err := r.fsm.RequestUnbond(value); err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}
	if err := r.fsm.RecordUnbondTimestamp(now); err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}

	bufferPeriod := r.cfg.FeePayoutCooldown * 3 * r.cfg.EstimatedBlockIntervalSeconds
	status := vault.UnbondReadyStatus{
		Kind:   vault.Ready,
		Amount: value,
		Epoch: vault.Epoch{
			Start: now,
			End:   now + r.cfg.UnbondingPeriodSeconds + bufferPeriod,
		},
	}
	return status, nil, nil
}

// ClaimAmount implements vault.Strategy: the requested value is
// haircut by the ratio of actually-landed to expected-landed funds,
// floored, and capped at what's currently claimable — matching
// original_source's SendClaimed ratio computation in
// contracts/vault/remote-pos/strategy.rs.
func (r *RemotePOS) ClaimAmount(totalUnbondValue uint64, _ vault.Epoch) (uint64, error) {
	actual, expected, available, err := r.fsm.UnbondedTotals()
	if err != nil {
		return 0, err
	}
	if expected == 0 {
		return 0, nil
	}
	numer := actual
	if expected < numer {
		numer = expected
	}
	ratio, ok := numerics.FromRatio(numer, expected)
	if !ok {
		return 0, fmt.Errorf("%w: claim ratio computation overflow", chain.ErrInvariantBroken)
	}
	product, ok := ratio.Mul(numerics.FromInteger(totalUnbondValue))
	if !ok {
		return 0, fmt.Errorf("%w: claim amount computation overflow", chain.ErrInvariantBroken)
	}
	claimAmount, err := product.Floor()
	if err != nil {
		return 0, err
	}
	if claimAmount > available {
		claimAmount = available
	}
	return claimAmount, nil
}

// SendClaimed implements vault.Strategy.
func (r *RemotePOS) SendClaimed(amount uint64, recipient chain.Address) (chain.Command, error) {
	if err := r.fsm.ConsumeAvailableToClaim(amount); err != nil {
		return chain.Command{}, err
	}
	return chain.Command{Kind: chain.CmdBankSend, Denom: r.asset, Amount: amount, Recipient: recipient}, nil
}

func absDiffU64(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

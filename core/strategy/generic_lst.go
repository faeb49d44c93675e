package strategy

import (
	"encoding/binary"
	"fmt"

	"synthub/core/chain"
	"synthub/core/vault"
)

// GenericLST is the instant-redemption strategy adapter: deposits and
// redemptions settle against a live redemption-rate oracle with no
// unbonding delay, matching original_source's
// contracts/vault/generic-lst/strategy.rs. Unbond always reports
// Ready with start == end == now, an intentional simplification (see
// DESIGN.md) since the underlying LST itself carries no lockup.
type GenericLST struct {
	store    chain.StateRW
	id       chain.VaultID
	lstDenom chain.Denom
	oracle   RateOracle
	now      func() uint64
}

// NewGenericLST constructs a GenericLST strategy bound to store,
// identified by id, redeeming lstDenom. now supplies the block clock
// used to stamp the (degenerate) unbond epoch.
func NewGenericLST(store chain.StateRW, id chain.VaultID, lstDenom chain.Denom, oracle RateOracle, now func() uint64) *GenericLST {
	return &GenericLST{store: store, id: id, lstDenom: lstDenom, oracle: oracle, now: now}
}

func (g *GenericLST) activeKey() []byte {
	return []byte(fmt.Sprintf("generic_lst::%s::active_balance", g.id))
}

func (g *GenericLST) claimableKey() []byte {
	return []byte(fmt.Sprintf("generic_lst::%s::claimable_balance", g.id))
}

func (g *GenericLST) getU64(key []byte) (uint64, error) {
	raw, err := g.store.GetState(key)
	if err != nil || len(raw) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (g *GenericLST) setU64(key []byte, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return g.store.SetState(key, buf)
}

func (g *GenericLST) activeBalance() (uint64, error) { return g.getU64(g.activeKey()) }

func (g *GenericLST) claimableBalance() (uint64, error) { return g.getU64(g.claimableKey()) }

// DepositValue implements vault.Strategy.
func (g *GenericLST) DepositValue(amount uint64) (uint64, error) {
	rate, err := g.oracle.Rate()
	if err != nil {
		return 0, err
	}
	return rate.LstToUnderlying(amount)
}

// TotalDepositsValue implements vault.Strategy.
func (g *GenericLST) TotalDepositsValue() (uint64, error) {
	active, err := g.activeBalance()
	if err != nil {
		return 0, err
	}
	rate, err := g.oracle.Rate()
	if err != nil {
		return 0, err
	}
	return rate.LstToUnderlying(active)
}

// Deposit implements vault.Strategy.
func (g *GenericLST) Deposit(amount uint64) (chain.Command, error) {
	active, err := g.activeBalance()
	if err != nil {
		return chain.Command{}, err
	}
	newActive := active + amount
	if newActive < active {
		return chain.Command{}, fmt.Errorf("%w: active lst balance overflow", chain.ErrInvariantBroken)
	}
	if err := g.setU64(g.activeKey(), newActive); err != nil {
		return chain.Command{}, err
	}
	return chain.Command{Kind: chain.CmdStrategyDeposit, Denom: g.lstDenom, Amount: amount}, nil
}

// Unbond implements vault.Strategy. Settlement is always immediate.
func (g *GenericLST) Unbond(value uint64) (vault.UnbondReadyStatus, []chain.Command, error) {
	rate, err := g.oracle.Rate()
	if err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}
	lstAmount, err := rate.UnderlyingToLst(value)
	if err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}

	active, err := g.activeBalance()
	if err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}
	if lstAmount > active {
		return vault.UnbondReadyStatus{}, nil, fmt.Errorf("%w: unbond exceeds active lst balance", vault.ErrVaultLoss)
	}
	claimable, err := g.claimableBalance()
	if err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}
	if err := g.setU64(g.activeKey(), active-lstAmount); err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}
	if err := g.setU64(g.claimableKey(), claimable+lstAmount); err != nil {
		return vault.UnbondReadyStatus{}, nil, err
	}

	now := g.now()
	status := vault.UnbondReadyStatus{
		Kind:   vault.Ready,
		Amount: lstAmount,
		Epoch:  vault.Epoch{Start: now, End: now},
	}
	return status, nil, nil
}

// ClaimAmount implements vault.Strategy. The LST strategy applies no
// haircut: the full unbond value is claimable once settled.
func (g *GenericLST) ClaimAmount(totalUnbondValue uint64, _ vault.Epoch) (uint64, error) {
	return totalUnbondValue, nil
}

// SendClaimed implements vault.Strategy.
func (g *GenericLST) SendClaimed(amount uint64, recipient chain.Address) (chain.Command, error) {
	claimable, err := g.claimableBalance()
	if err != nil {
		return chain.Command{}, err
	}
	if amount > claimable {
		return chain.Command{}, fmt.Errorf("%w: claim exceeds claimable lst balance", chain.ErrInsufficientFunds)
	}
	if err := g.setU64(g.claimableKey(), claimable-amount); err != nil {
		return chain.Command{}, err
	}
	return chain.Command{Kind: chain.CmdBankSend, Denom: g.lstDenom, Amount: amount, Recipient: recipient}, nil
}

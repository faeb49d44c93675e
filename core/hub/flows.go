package hub

import (
	"fmt"

	"synthub/core/chain"
)

// resolveAccount resolves the account a call affects: the caller
// itself, unless behalfOf names a proxied account, in which case
// caller must equal the vault's configured proxy for that flow.
func resolveAccount(caller chain.Address, proxy *chain.Address, behalfOf *chain.Address) (chain.Address, error) {
	if behalfOf == nil {
		return caller, nil
	}
	if proxy == nil || caller != *proxy {
		return chain.Address{}, fmt.Errorf("%w: caller is not the configured proxy for this vault", chain.ErrUnauthorized)
	}
	return *behalfOf, nil
}

func (e *Engine) stashCallback(cb PendingCallback) error {
	var existing PendingCallback
	ok, err := getJSON(e.store, callbackKey(), &existing)
	if err != nil {
		return err
	}
	if ok {
		return ErrCallbackSlotOccupied
	}
	return setJSON(e.store, callbackKey(), cb)
}

func (e *Engine) clearCallback() error {
	return e.store.DeleteState(callbackKey())
}

// DepositOutcome reports the result of a deposit or repay-underlying
// flow.
type DepositOutcome struct {
	DepositValue uint64
	Minted       uint64
}

// Deposit credits caller's (or behalfOf's, via the deposit proxy)
// collateral with amount of asset.
func (e *Engine) Deposit(caller chain.Address, id chain.VaultID, asset chain.Denom, amount uint64, behalfOf *chain.Address) (DepositOutcome, []chain.Command, error) {
	if err := e.advanceSPR(id); err != nil {
		return DepositOutcome{}, nil, err
	}
	cfg, err := e.config(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if !cfg.DepositsEnabled {
		return DepositOutcome{}, nil, ErrDepositsDisabled
	}
	account, err := resolveAccount(caller, cfg.DepositProxy, behalfOf)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if err := e.materialize(id, account); err != nil {
		return DepositOutcome{}, nil, err
	}

	v, err := e.vaultByID(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if asset != v.DepositAsset() {
		return DepositOutcome{}, nil, fmt.Errorf("%w: vault accepts %s, got %s", chain.ErrInvalidConfig, v.DepositAsset(), asset)
	}

	if err := e.stashCallback(PendingCallback{Vault: id, Recipient: account, Reason: CallbackDeposit}); err != nil {
		return DepositOutcome{}, nil, err
	}
	result, cmds, err := v.Deposit(asset, amount, account)
	if err != nil {
		_ = e.clearCallback()
		return DepositOutcome{}, nil, err
	}

	bs, err := e.balanceSheet(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	bs.CollateralShares += result.Minted
	bs.CollateralBalance += result.DepositValue
	if err := e.setBalanceSheet(id, bs); err != nil {
		return DepositOutcome{}, nil, err
	}

	as, err := e.accountState(id, account)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	as.Collateral += result.DepositValue
	if err := e.setAccountState(id, account, as); err != nil {
		return DepositOutcome{}, nil, err
	}
	if err := e.clearCallback(); err != nil {
		return DepositOutcome{}, nil, err
	}

	return DepositOutcome{DepositValue: result.DepositValue, Minted: result.Minted}, cmds, nil
}

// RepayUnderlying deposits amount of the vault's underlying asset and
// applies it against the account's outstanding debt instead of
// crediting collateral; any excess beyond the debt becomes credit.
func (e *Engine) RepayUnderlying(caller chain.Address, id chain.VaultID, asset chain.Denom, amount uint64, behalfOf *chain.Address) (DepositOutcome, []chain.Command, error) {
	if err := e.advanceSPR(id); err != nil {
		return DepositOutcome{}, nil, err
	}
	cfg, err := e.config(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	account, err := resolveAccount(caller, cfg.DepositProxy, behalfOf)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if err := e.materialize(id, account); err != nil {
		return DepositOutcome{}, nil, err
	}

	v, err := e.vaultByID(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if asset != v.DepositAsset() {
		return DepositOutcome{}, nil, fmt.Errorf("%w: vault accepts %s, got %s", chain.ErrInvalidConfig, v.DepositAsset(), asset)
	}

	if err := e.stashCallback(PendingCallback{Vault: id, Recipient: account, Reason: CallbackRepayUnderlying}); err != nil {
		return DepositOutcome{}, nil, err
	}
	result, cmds, err := v.Deposit(asset, amount, account)
	if err != nil {
		_ = e.clearCallback()
		return DepositOutcome{}, nil, err
	}

	bs, err := e.balanceSheet(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	bs.CollateralShares += result.Minted
	bs.CollateralBalance += result.DepositValue
	if err := e.setBalanceSheet(id, bs); err != nil {
		return DepositOutcome{}, nil, err
	}

	as, err := e.accountState(id, account)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if result.DepositValue > as.Debt {
		as.Credit += result.DepositValue - as.Debt
		as.Debt = 0
	} else {
		as.Debt -= result.DepositValue
	}
	if err := e.setAccountState(id, account, as); err != nil {
		return DepositOutcome{}, nil, err
	}
	if err := e.clearCallback(); err != nil {
		return DepositOutcome{}, nil, err
	}

	return DepositOutcome{DepositValue: result.DepositValue, Minted: result.Minted}, cmds, nil
}

// Mint deposits amount of the vault's underlying asset as fresh
// collateral and immediately mints the same value of the vault's
// bound synthetic against it, raising the account's debt by that
// amount.
func (e *Engine) Mint(caller chain.Address, id chain.VaultID, asset chain.Denom, amount uint64, behalfOf *chain.Address) (DepositOutcome, []chain.Command, error) {
	if err := e.advanceSPR(id); err != nil {
		return DepositOutcome{}, nil, err
	}
	cfg, err := e.config(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if !cfg.DepositsEnabled {
		return DepositOutcome{}, nil, ErrDepositsDisabled
	}
	if cfg.Synthetic == "" || !e.mint.SyntheticExists(cfg.Synthetic) {
		return DepositOutcome{}, nil, fmt.Errorf("%w: vault has no bound synthetic", chain.ErrInvalidConfig)
	}
	account, err := resolveAccount(caller, cfg.MintProxy, behalfOf)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if err := e.materialize(id, account); err != nil {
		return DepositOutcome{}, nil, err
	}

	v, err := e.vaultByID(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	if asset != v.DepositAsset() {
		return DepositOutcome{}, nil, fmt.Errorf("%w: vault accepts %s, got %s", chain.ErrInvalidConfig, v.DepositAsset(), asset)
	}

	if err := e.stashCallback(PendingCallback{Vault: id, Recipient: account, Reason: CallbackMint}); err != nil {
		return DepositOutcome{}, nil, err
	}
	result, cmds, err := v.Deposit(asset, amount, account)
	if err != nil {
		_ = e.clearCallback()
		return DepositOutcome{}, nil, err
	}

	bs, err := e.balanceSheet(id)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	bs.CollateralShares += result.Minted
	bs.CollateralBalance += result.DepositValue
	if err := e.setBalanceSheet(id, bs); err != nil {
		return DepositOutcome{}, nil, err
	}

	as, err := e.accountState(id, account)
	if err != nil {
		return DepositOutcome{}, nil, err
	}
	as.Collateral += result.DepositValue
	as.Debt += result.DepositValue
	if err := e.setAccountState(id, account, as); err != nil {
		return DepositOutcome{}, nil, err
	}
	if err := e.clearCallback(); err != nil {
		return DepositOutcome{}, nil, err
	}

	mintCmd := chain.Command{Kind: chain.CmdMint, Denom: cfg.Synthetic, Amount: result.DepositValue, Recipient: account}
	return DepositOutcome{DepositValue: result.DepositValue, Minted: result.Minted}, append(cmds, mintCmd), nil
}

// AdvanceOutcome reports the result of an advance flow.
type AdvanceOutcome struct {
	AmountOut uint64
	Fee       uint64
}

// Advance borrows requested units of the vault's synthetic against
// caller's (or behalfOf's) collateral, bounded by max_ltv, skimming an
// advance fee to the configured fee recipient. The fee rate comes from
// the vault's advance-fee oracle when one is set, otherwise from its
// fixed advance fee, and is clamped to MaxAdvanceFeeBps.
func (e *Engine) Advance(caller chain.Address, id chain.VaultID, requested uint64, behalfOf *chain.Address) (AdvanceOutcome, []chain.Command, error) {
	if requested == 0 {
		return AdvanceOutcome{}, nil, chain.ErrZeroAmount
	}
	if err := e.advanceSPR(id); err != nil {
		return AdvanceOutcome{}, nil, err
	}
	cfg, err := e.config(id)
	if err != nil {
		return AdvanceOutcome{}, nil, err
	}
	if !cfg.AdvanceEnabled {
		return AdvanceOutcome{}, nil, ErrAdvanceDisabled
	}
	account, err := resolveAccount(caller, cfg.AdvanceProxy, behalfOf)
	if err != nil {
		return AdvanceOutcome{}, nil, err
	}
	if err := e.materialize(id, account); err != nil {
		return AdvanceOutcome{}, nil, err
	}
	as, err := e.accountState(id, account)
	if err != nil {
		return AdvanceOutcome{}, nil, err
	}

	maxDebt := applyBps(as.Collateral, cfg.MaxLTVBps)
	if as.Debt+requested > maxDebt {
		return AdvanceOutcome{}, nil, ErrExceedsLTV
	}

	feeBps := cfg.FixedAdvanceFeeBps
	if oracle, ok := e.advanceFeeOracles[id]; ok {
		if oracleBps, ok, oracleErr := oracle.AdvanceFee(account); oracleErr != nil {
			return AdvanceOutcome{}, nil, oracleErr
		} else if ok {
			feeBps = oracleBps
		}
	}
	if feeBps > MaxAdvanceFeeBps {
		feeBps = MaxAdvanceFeeBps
	}
	fee := applyBps(requested, feeBps)
	amountOut := requested - fee

	as.Debt += requested
	if err := e.setAccountState(id, account, as); err != nil {
		return AdvanceOutcome{}, nil, err
	}

	cmds := []chain.Command{{Kind: chain.CmdMint, Denom: cfg.Synthetic, Amount: amountOut, Recipient: account}}
	if fee > 0 && cfg.AdvanceFeeRecipient != nil {
		cmds = append(cmds, chain.Command{Kind: chain.CmdMint, Denom: cfg.Synthetic, Amount: fee, Recipient: *cfg.AdvanceFeeRecipient})
	}
	return AdvanceOutcome{AmountOut: amountOut, Fee: fee}, cmds, nil
}

// RedeemOutcome reports the result of a redeem flow.
type RedeemOutcome struct {
	Ready          bool
	FromCredit     uint64
	FromCollateral uint64
}

// Redeem burns amount of the vault's synthetic from caller, consuming
// account credit first and collateral second, and begins unbonding
// the collateral-sourced portion to recipient.
func (e *Engine) Redeem(caller chain.Address, id chain.VaultID, synthetic chain.Denom, amount uint64, recipient chain.Address, behalfOf *chain.Address) (RedeemOutcome, []chain.Command, error) {
	if amount == 0 {
		return RedeemOutcome{}, nil, chain.ErrZeroAmount
	}
	if err := e.advanceSPR(id); err != nil {
		return RedeemOutcome{}, nil, err
	}
	cfg, err := e.config(id)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	if synthetic != cfg.Synthetic {
		return RedeemOutcome{}, nil, ErrSyntheticMismatch
	}
	account, err := resolveAccount(caller, cfg.RedeemProxy, behalfOf)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	if err := e.materialize(id, account); err != nil {
		return RedeemOutcome{}, nil, err
	}
	as, err := e.accountState(id, account)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	if amount > as.Credit+as.Collateral {
		return RedeemOutcome{}, nil, ErrInsufficientCredit
	}

	fromCredit := amount
	if fromCredit > as.Credit {
		fromCredit = as.Credit
	}
	fromCollateral := amount - fromCredit

	v, err := e.vaultByID(id)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}

	burnCmd := chain.Command{Kind: chain.CmdBurn, Denom: synthetic, Amount: amount, Sender: caller}

	if fromCollateral == 0 {
		as.Credit -= fromCredit
		if err := e.setAccountState(id, account, as); err != nil {
			return RedeemOutcome{}, nil, err
		}
		return RedeemOutcome{Ready: true, FromCredit: fromCredit}, []chain.Command{burnCmd}, nil
	}

	totalShares := v.TotalSharesIssued()
	totalDepositsValue, err := v.TotalDepositsValue()
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	sharesAmount, err := sharesForValue(fromCollateral, totalDepositsValue, totalShares)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}

	outcome, cmds, err := v.Redeem(sharesAmount, recipient)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	if !outcome.Ready {
		return RedeemOutcome{Ready: false}, nil, nil
	}

	as.Credit -= fromCredit
	as.Collateral -= fromCollateral
	if err := e.setAccountState(id, account, as); err != nil {
		return RedeemOutcome{}, nil, err
	}
	bs, err := e.balanceSheet(id)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	bs.CollateralShares -= sharesAmount
	bs.CollateralBalance -= fromCollateral
	if err := e.setBalanceSheet(id, bs); err != nil {
		return RedeemOutcome{}, nil, err
	}

	return RedeemOutcome{Ready: true, FromCredit: fromCredit, FromCollateral: fromCollateral}, append([]chain.Command{burnCmd}, cmds...), nil
}

// Withdraw releases amount of caller's collateral, bounded by the
// collateral required to keep existing debt within max_ltv. There is
// no withdraw proxy, so a non-nil behalfOf is rejected as unauthorized.
func (e *Engine) Withdraw(caller chain.Address, id chain.VaultID, amount uint64, behalfOf *chain.Address) (bool, []chain.Command, error) {
	if amount == 0 {
		return false, nil, chain.ErrZeroAmount
	}
	if err := e.advanceSPR(id); err != nil {
		return false, nil, err
	}
	cfg, err := e.config(id)
	if err != nil {
		return false, nil, err
	}
	account, err := resolveAccount(caller, nil, behalfOf)
	if err != nil {
		return false, nil, err
	}
	if err := e.materialize(id, account); err != nil {
		return false, nil, err
	}
	as, err := e.accountState(id, account)
	if err != nil {
		return false, nil, err
	}

	var required uint64
	if as.Debt > 0 {
		if cfg.MaxLTVBps == 0 {
			return false, nil, ErrExceedsLTV
		}
		required = ceilDiv(as.Debt*10000, cfg.MaxLTVBps)
	}
	if as.Collateral < required || amount > as.Collateral-required {
		return false, nil, ErrExceedsLTV
	}

	v, err := e.vaultByID(id)
	if err != nil {
		return false, nil, err
	}
	totalShares := v.TotalSharesIssued()
	totalDepositsValue, err := v.TotalDepositsValue()
	if err != nil {
		return false, nil, err
	}
	sharesAmount, err := sharesForValue(amount, totalDepositsValue, totalShares)
	if err != nil {
		return false, nil, err
	}
	outcome, cmds, err := v.Redeem(sharesAmount, account)
	if err != nil {
		return false, nil, err
	}
	if !outcome.Ready {
		return false, nil, nil
	}

	as.Collateral -= amount
	if err := e.setAccountState(id, account, as); err != nil {
		return false, nil, err
	}
	bs, err := e.balanceSheet(id)
	if err != nil {
		return false, nil, err
	}
	bs.CollateralShares -= sharesAmount
	bs.CollateralBalance -= amount
	if err := e.setBalanceSheet(id, bs); err != nil {
		return false, nil, err
	}
	return true, cmds, nil
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// ClaimTreasury redeems the vault's entire treasury-share bucket and
// begins unbonding it to caller, who must be the configured treasury.
func (e *Engine) ClaimTreasury(caller chain.Address, id chain.VaultID) (bool, []chain.Command, error) {
	var global GlobalConfig
	if _, err := getJSON(e.store, globalKey(), &global); err != nil {
		return false, nil, err
	}
	if caller != global.Treasury {
		return false, nil, fmt.Errorf("%w: caller is not the treasury", chain.ErrUnauthorized)
	}
	if err := e.advanceSPR(id); err != nil {
		return false, nil, err
	}
	bs, err := e.balanceSheet(id)
	if err != nil {
		return false, nil, err
	}
	if bs.TreasuryShares == 0 {
		return false, nil, chain.ErrZeroAmount
	}
	v, err := e.vaultByID(id)
	if err != nil {
		return false, nil, err
	}
	outcome, cmds, err := v.Redeem(bs.TreasuryShares, caller)
	if err != nil {
		return false, nil, err
	}
	if !outcome.Ready {
		return false, nil, nil
	}
	bs.TreasuryShares = 0
	if err := e.setBalanceSheet(id, bs); err != nil {
		return false, nil, err
	}
	return true, cmds, nil
}

// ClaimAmo redeems the vault's entire AMO-share bucket and begins
// unbonding it to caller, who must be the configured AMO address.
func (e *Engine) ClaimAmo(caller chain.Address, id chain.VaultID) (bool, []chain.Command, error) {
	cfg, err := e.config(id)
	if err != nil {
		return false, nil, err
	}
	if cfg.AMO == nil || caller != *cfg.AMO {
		return false, nil, fmt.Errorf("%w: caller is not the configured amo", chain.ErrUnauthorized)
	}
	if err := e.advanceSPR(id); err != nil {
		return false, nil, err
	}
	bs, err := e.balanceSheet(id)
	if err != nil {
		return false, nil, err
	}
	if bs.AmoShares == 0 {
		return false, nil, chain.ErrZeroAmount
	}
	v, err := e.vaultByID(id)
	if err != nil {
		return false, nil, err
	}
	outcome, cmds, err := v.Redeem(bs.AmoShares, caller)
	if err != nil {
		return false, nil, err
	}
	if !outcome.Ready {
		return false, nil, nil
	}
	bs.AmoShares = 0
	if err := e.setBalanceSheet(id, bs); err != nil {
		return false, nil, err
	}
	return true, cmds, nil
}

// ConvertCredit withdraws up to amount of caller's accrued credit as
// underlying asset, pulling it out of the vault's shared collateral
// pool (where advanceSPR parked it) and beginning unbonding to
// caller.
func (e *Engine) ConvertCredit(caller chain.Address, id chain.VaultID, amount uint64) (bool, []chain.Command, error) {
	if amount == 0 {
		return false, nil, chain.ErrZeroAmount
	}
	if err := e.advanceSPR(id); err != nil {
		return false, nil, err
	}
	if err := e.materialize(id, caller); err != nil {
		return false, nil, err
	}
	as, err := e.accountState(id, caller)
	if err != nil {
		return false, nil, err
	}
	if amount > as.Credit {
		return false, nil, ErrInsufficientCredit
	}

	v, err := e.vaultByID(id)
	if err != nil {
		return false, nil, err
	}
	totalShares := v.TotalSharesIssued()
	totalDepositsValue, err := v.TotalDepositsValue()
	if err != nil {
		return false, nil, err
	}
	sharesAmount, err := sharesForValue(amount, totalDepositsValue, totalShares)
	if err != nil {
		return false, nil, err
	}
	outcome, cmds, err := v.Redeem(sharesAmount, caller)
	if err != nil {
		return false, nil, err
	}
	if !outcome.Ready {
		return false, nil, nil
	}

	as.Credit -= amount
	if err := e.setAccountState(id, caller, as); err != nil {
		return false, nil, err
	}
	bs, err := e.balanceSheet(id)
	if err != nil {
		return false, nil, err
	}
	bs.CollateralShares -= sharesAmount
	bs.CollateralBalance -= amount
	if err := e.setBalanceSheet(id, bs); err != nil {
		return false, nil, err
	}
	return true, cmds, nil
}

// SelfLiquidate cancels up to amount of caller's own debt, consuming
// their accrued credit first and, for any remainder, forfeiting the
// equivalent collateral shares into the vault's reserve bucket rather
// than redeeming them for cash — the protocol absorbs the position
// instead of paying the caller out, since no synthetic is supplied to
// burn against the debt being cancelled.
func (e *Engine) SelfLiquidate(caller chain.Address, id chain.VaultID, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, chain.ErrZeroAmount
	}
	if err := e.advanceSPR(id); err != nil {
		return 0, err
	}
	if err := e.materialize(id, caller); err != nil {
		return 0, err
	}
	as, err := e.accountState(id, caller)
	if err != nil {
		return 0, err
	}
	effective := amount
	if effective > as.Debt {
		effective = as.Debt
	}
	if effective == 0 {
		return 0, chain.ErrZeroAmount
	}

	fromCredit := effective
	if fromCredit > as.Credit {
		fromCredit = as.Credit
	}
	fromCollateral := effective - fromCredit
	if fromCollateral > as.Collateral {
		return 0, ErrInsufficientCredit
	}

	v, err := e.vaultByID(id)
	if err != nil {
		return 0, err
	}
	var sharesAmount uint64
	if fromCollateral > 0 {
		totalShares := v.TotalSharesIssued()
		totalDepositsValue, err := v.TotalDepositsValue()
		if err != nil {
			return 0, err
		}
		sharesAmount, err = sharesForValue(fromCollateral, totalDepositsValue, totalShares)
		if err != nil {
			return 0, err
		}
	}

	as.Credit -= fromCredit
	as.Collateral -= fromCollateral
	as.Debt -= effective
	if err := e.setAccountState(id, caller, as); err != nil {
		return 0, err
	}

	if fromCollateral > 0 {
		bs, err := e.balanceSheet(id)
		if err != nil {
			return 0, err
		}
		bs.CollateralShares -= sharesAmount
		bs.CollateralBalance -= fromCollateral
		bs.ReserveShares += sharesAmount
		bs.ReserveBalance += fromCollateral
		if err := e.setBalanceSheet(id, bs); err != nil {
			return 0, err
		}
	}

	return effective, nil
}

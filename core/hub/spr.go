package hub

import (
	"fmt"

	"synthub/core/chain"
	"synthub/core/numerics"
)

func (e *Engine) balanceSheet(id chain.VaultID) (BalanceSheet, error) {
	var bs BalanceSheet
	if _, err := getJSON(e.store, balanceSheetKey(id), &bs); err != nil {
		return BalanceSheet{}, err
	}
	return bs, nil
}

func (e *Engine) setBalanceSheet(id chain.VaultID, bs BalanceSheet) error {
	return setJSON(e.store, balanceSheetKey(id), bs)
}

func (e *Engine) accountState(id chain.VaultID, a chain.Address) (AccountState, error) {
	var as AccountState
	if _, err := getJSON(e.store, accountKey(id, a), &as); err != nil {
		return AccountState{}, err
	}
	return as, nil
}

func (e *Engine) setAccountState(id chain.VaultID, a chain.Address, as AccountState) error {
	return setJSON(e.store, accountKey(id, a), as)
}

// advanceSPR is step one of every hub entry point: it prices the
// shares the hub holds (collateral, reserve, treasury and AMO buckets)
// against the vault's current deposits
// value, realizes any yield since the last call, skims the configured
// collateral/reserve fees into treasury (and AMO, if configured), and
// folds the remainder into the sum-payment-ratio that every account
// checkpoints against.
func (e *Engine) advanceSPR(id chain.VaultID) error {
	v, err := e.vaultByID(id)
	if err != nil {
		return err
	}
	cfg, err := e.config(id)
	if err != nil {
		return err
	}
	bs, err := e.balanceSheet(id)
	if err != nil {
		return err
	}

	sharesOwed := bs.CollateralShares + bs.ReserveShares + bs.TreasuryShares + bs.AmoShares
	totalShares := v.TotalSharesIssued()
	if sharesOwed == 0 || totalShares == 0 {
		return nil
	}
	totalDepositsValue, err := v.TotalDepositsValue()
	if err != nil {
		return err
	}

	sharesValue, err := mulDivU64(sharesOwed, totalDepositsValue, totalShares)
	if err != nil {
		return err
	}

	backedBalance := bs.CollateralBalance + bs.ReserveBalance
	if sharesValue <= backedBalance {
		// No yield accrued (or a loss, which this port does not
		// attempt to socialize below zero): nothing to distribute.
		return nil
	}
	yield := sharesValue - backedBalance

	var collateralYield uint64
	if bs.ReserveBalance == 0 {
		collateralYield = yield
	} else {
		denom := bs.CollateralBalance + bs.ReserveBalance
		collateralYield, err = mulDivU64(yield, bs.CollateralBalance, denom)
		if err != nil {
			return err
		}
	}
	reserveYield := yield - collateralYield

	collateralFee := applyBps(collateralYield, cfg.CollateralYieldFeeBps)
	reserveFee := applyBps(reserveYield, cfg.ReserveYieldFeeBps)
	totalFee := collateralFee + reserveFee

	collateralBalanceBefore := bs.CollateralBalance

	if totalFee > 0 {
		amoCut := applyBps(totalFee, cfg.AmoAllocationBps)
		treasuryCut := totalFee - amoCut
		feeShares, err := sharesForValue(totalFee, totalDepositsValue, totalShares)
		if err != nil {
			return err
		}
		amoSharesCut, err := sharesForValue(amoCut, totalDepositsValue, totalShares)
		if err != nil {
			return err
		}
		if cfg.AMO == nil {
			amoSharesCut = 0
		}
		treasurySharesCut := feeShares - amoSharesCut
		bs.TreasuryShares += treasurySharesCut
		bs.AmoShares += amoSharesCut
	}

	bs.CollateralBalance += collateralYield - collateralFee
	bs.ReserveBalance += reserveYield - reserveFee

	if collateralBalanceBefore > 0 {
		netCollateralYield := collateralYield - collateralFee
		delta, ok := numerics.FromRatio(netCollateralYield, collateralBalanceBefore)
		if !ok {
			return fmt.Errorf("%w: spr delta computation overflow", chain.ErrInvariantBroken)
		}
		overallSPR := numerics.FxFromBytes32(bs.OverallSPRRaw)
		newSPR, err := overallSPR.Add(delta)
		if err != nil {
			return err
		}
		bs.OverallSPRRaw = newSPR.Bytes32()
	}

	return e.setBalanceSheet(id, bs)
}

// materialize realizes an account's accrued yield share before any
// operation reads or mutates its position: the gap between the
// vault's SPR and the account's last checkpoint, applied per unit of
// the account's collateral, first repays outstanding debt and then
// accumulates as spendable credit.
func (e *Engine) materialize(id chain.VaultID, account chain.Address) error {
	bs, err := e.balanceSheet(id)
	if err != nil {
		return err
	}
	as, err := e.accountState(id, account)
	if err != nil {
		return err
	}

	overallSPR := numerics.FxFromBytes32(bs.OverallSPRRaw)
	accountSPR := numerics.FxFromBytes32(as.SPRRaw)
	if overallSPR.Cmp(accountSPR) < 0 {
		return fmt.Errorf("%w: account spr ahead of overall spr", chain.ErrInvariantBroken)
	}

	sprDelta, err := overallSPR.Sub(accountSPR)
	if err != nil {
		return err
	}
	if !sprDelta.IsZero() && as.Collateral > 0 {
		gainFx, ok := sprDelta.Mul(numerics.FromInteger(as.Collateral))
		if !ok {
			return fmt.Errorf("%w: credit gain computation overflow", chain.ErrInvariantBroken)
		}
		creditGain, err := gainFx.Floor()
		if err != nil {
			return err
		}
		debtRepay := creditGain
		if debtRepay > as.Debt {
			debtRepay = as.Debt
		}
		as.Debt -= debtRepay
		as.Credit += creditGain - debtRepay
	}
	as.SPRRaw = overallSPR.Bytes32()
	return e.setAccountState(id, account, as)
}

func applyBps(amount, bps uint64) uint64 {
	if bps > numerics.HundredPercentBps {
		return 0
	}
	out, err := mulDivU64(amount, bps, numerics.HundredPercentBps)
	if err != nil {
		return 0
	}
	return out
}

func mulDivU64(a, b, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, fmt.Errorf("%w: division by zero", chain.ErrInvariantBroken)
	}
	product, ok := numerics.FromInteger(a).Mul(numerics.FromInteger(b))
	if !ok {
		return 0, fmt.Errorf("%w: multiplication overflow", chain.ErrInvariantBroken)
	}
	quotient, ok := product.Div(numerics.FromInteger(denom))
	if !ok {
		return 0, fmt.Errorf("%w: division overflow", chain.ErrInvariantBroken)
	}
	return quotient.Floor()
}

// sharesForValue converts an underlying value into the vault shares
// currently worth it, at totalDepositsValue/totalShares.
func sharesForValue(value, totalDepositsValue, totalShares uint64) (uint64, error) {
	if totalDepositsValue == 0 {
		return 0, nil
	}
	return mulDivU64(value, totalShares, totalDepositsValue)
}

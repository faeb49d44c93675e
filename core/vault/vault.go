// Package vault implements share issuance, deposit-value accounting and
// the unbonding-batch lifecycle shared by every yield vault, regardless
// of which underlying strategy actually custodies funds.
package vault

import (
	"encoding/binary"
	"fmt"

	"synthub/core/chain"
)

// SharePrecisionMultiplier is the fixed 12-decimal bootstrap multiplier
// applied when a vault mints its very first shares: one share per
// 10^-12 underlying unit.
const SharePrecisionMultiplier = 1_000_000_000_000

// DepositResult reports the outcome of a successful deposit.
type DepositResult struct {
	TotalSharesIssued  uint64
	TotalDepositsValue uint64
	Minted             uint64
	DepositValue       uint64
}

// Vault tracks share issuance against a single Strategy.
type Vault struct {
	store       chain.StateRW
	id          chain.VaultID
	strategy    Strategy
	depositAsset chain.Denom
	ubl         *UnbondingLog
}

// New constructs a Vault bound to store, identified by id, backed by
// strategy and accepting deposits of depositAsset.
func New(store chain.StateRW, id chain.VaultID, strategy Strategy, depositAsset chain.Denom) *Vault {
	return &Vault{
		store:        store,
		id:           id,
		strategy:     strategy,
		depositAsset: depositAsset,
		ubl:          NewUnbondingLog(store, id),
	}
}

// ID returns the vault's identifier.
func (v *Vault) ID() chain.VaultID { return v.id }

// UnbondingLog exposes the vault's unbonding batch state for read-only
// callers such as query handlers.
func (v *Vault) UnbondingLog() *UnbondingLog { return v.ubl }

func (v *Vault) sharesKey() []byte {
	return []byte(fmt.Sprintf("vault::%s::total_shares_issued", v.id))
}

// TotalSharesIssued returns the vault's total outstanding shares.
func (v *Vault) TotalSharesIssued() uint64 {
	raw, err := v.store.GetState(v.sharesKey())
	if err != nil || len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

func (v *Vault) setTotalSharesIssued(shares uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, shares)
	return v.store.SetState(v.sharesKey(), buf)
}

// TotalDepositsValue reports the vault's current total underlying
// value under management, as priced by its strategy.
func (v *Vault) TotalDepositsValue() (uint64, error) {
	return v.strategy.TotalDepositsValue()
}

// DepositAsset returns the denom this vault accepts deposits of.
func (v *Vault) DepositAsset() chain.Denom { return v.depositAsset }

// Deposit converts amount of depositAsset into vault shares for
// recipient.
func (v *Vault) Deposit(asset chain.Denom, amount uint64, recipient chain.Address) (DepositResult, []chain.Command, error) {
	if asset != v.depositAsset {
		return DepositResult{}, nil, fmt.Errorf("%w: vault accepts %s, got %s", chain.ErrInvalidConfig, v.depositAsset, asset)
	}
	if amount == 0 {
		return DepositResult{}, nil, chain.ErrZeroAmount
	}

	depositValue, err := v.strategy.DepositValue(amount)
	if err != nil {
		return DepositResult{}, nil, err
	}

	totalShares := v.TotalSharesIssued()

	var minted uint64
	if totalShares == 0 {
		minted, err = mulOverflowCheck(depositValue, SharePrecisionMultiplier)
		if err != nil {
			return DepositResult{}, nil, err
		}
	} else {
		totalDepositsValue, err := v.strategy.TotalDepositsValue()
		if err != nil {
			return DepositResult{}, nil, err
		}
		// The strategy has not received this deposit yet, so
		// totalDepositsValue is the value the existing shares price against.
		if totalDepositsValue == 0 {
			return DepositResult{}, nil, fmt.Errorf("%w: vault loss, cannot price shares", ErrVaultLoss)
		}
		num, err := mulOverflowCheck(depositValue, totalShares)
		if err != nil {
			return DepositResult{}, nil, err
		}
		minted = num / totalDepositsValue
	}

	newTotalShares := totalShares + minted
	if newTotalShares < totalShares {
		return DepositResult{}, nil, fmt.Errorf("%w: total shares issued overflow", chain.ErrInvariantBroken)
	}
	if err := v.setTotalSharesIssued(newTotalShares); err != nil {
		return DepositResult{}, nil, err
	}

	depositCmd, err := v.strategy.Deposit(amount)
	if err != nil {
		return DepositResult{}, nil, err
	}
	mintCmd := chain.Command{Kind: chain.CmdMint, Denom: sharesDenom(v.id), Amount: minted, Recipient: recipient}

	newTotalDepositsValue, err := v.strategy.TotalDepositsValue()
	if err != nil {
		return DepositResult{}, nil, err
	}

	return DepositResult{
		TotalSharesIssued:  newTotalShares,
		TotalDepositsValue: newTotalDepositsValue,
		Minted:             minted,
		DepositValue:       depositValue,
	}, []chain.Command{depositCmd, mintCmd}, nil
}

// Donate adds amount to the strategy's holdings without minting shares,
// diluting existing shareholders' claim in their favor (their share of
// a now-larger deposits value).
func (v *Vault) Donate(asset chain.Denom, amount uint64) ([]chain.Command, error) {
	if asset != v.depositAsset {
		return nil, fmt.Errorf("%w: vault accepts %s, got %s", chain.ErrInvalidConfig, v.depositAsset, asset)
	}
	if amount == 0 {
		return nil, chain.ErrZeroAmount
	}
	cmd, err := v.strategy.Deposit(amount)
	if err != nil {
		return nil, err
	}
	return []chain.Command{cmd}, nil
}

// RedeemOutcome reports whether a redeem settled immediately or was
// deferred into a pending batch.
type RedeemOutcome struct {
	BatchID    chain.BatchID
	Ready      bool
	Settlement uint64
	Epoch      Epoch
}

// Redeem converts sharesAmount of the vault's shares back into
// underlying value and begins unbonding it for recipient.
func (v *Vault) Redeem(sharesAmount uint64, recipient chain.Address) (RedeemOutcome, []chain.Command, error) {
	if sharesAmount == 0 {
		return RedeemOutcome{}, nil, chain.ErrZeroAmount
	}

	totalShares := v.TotalSharesIssued()
	if totalShares == 0 || sharesAmount > totalShares {
		return RedeemOutcome{}, nil, fmt.Errorf("%w: redeem exceeds outstanding shares", chain.ErrInsufficientFunds)
	}
	totalDepositsValue, err := v.strategy.TotalDepositsValue()
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	value, err := mulOverflowCheck(sharesAmount, totalDepositsValue)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}
	value /= totalShares

	status, strategyCmds, err := v.strategy.Unbond(value)
	if err != nil {
		return RedeemOutcome{}, nil, err
	}

	burnCmd := chain.Command{Kind: chain.CmdBurn, Denom: sharesDenom(v.id), Amount: sharesAmount, Sender: recipient}
	pending := v.ubl.PendingBatchID()

	switch status.Kind {
	case Ready:
		if err := v.ubl.enterBatch(recipient, pending, value); err != nil {
			return RedeemOutcome{}, nil, err
		}
		if err := v.ubl.addBatchUnbondValue(pending, value); err != nil {
			return RedeemOutcome{}, nil, err
		}
		newTotalShares := totalShares - sharesAmount
		if err := v.setTotalSharesIssued(newTotalShares); err != nil {
			return RedeemOutcome{}, nil, err
		}
		cmds := append([]chain.Command{burnCmd}, strategyCmds...)
		return RedeemOutcome{BatchID: pending, Ready: true, Settlement: status.Amount, Epoch: status.Epoch}, cmds, nil

	case Later:
		if err := v.ubl.setPendingBatchHint(pending, status.Hint); err != nil {
			return RedeemOutcome{}, nil, err
		}
		return RedeemOutcome{BatchID: pending, Ready: false}, nil, nil

	default:
		return RedeemOutcome{}, nil, fmt.Errorf("%w: unknown unbond ready status", chain.ErrInvariantBroken)
	}
}

// StartUnbond commits the currently pending batch if the strategy now
// reports it ready, advancing last_committed_batch_id. It is a no-op,
// not an error, when nothing is ready yet.
func (v *Vault) StartUnbond(now uint64) ([]chain.Command, error) {
	pending := v.ubl.PendingBatchID()
	totalUnbondValue := v.ubl.BatchUnbondValue(pending)
	if totalUnbondValue == 0 {
		return nil, nil
	}

	status, cmds, err := v.strategy.Unbond(totalUnbondValue)
	if err != nil {
		return nil, err
	}
	if status.Kind != Ready {
		if status.Kind == Later {
			if err := v.ubl.setPendingBatchHint(pending, status.Hint); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	claimable, err := v.strategy.ClaimAmount(totalUnbondValue, status.Epoch)
	if err != nil {
		return nil, err
	}
	if claimable > totalUnbondValue {
		return nil, fmt.Errorf("%w: batch claimable amount exceeds unbond value", chain.ErrInvariantBroken)
	}

	if err := v.ubl.setCommittedBatchEpoch(pending, status.Epoch); err != nil {
		return nil, err
	}
	if err := v.ubl.setBatchClaimableAmount(pending, claimable); err != nil {
		return nil, err
	}
	if err := v.ubl.setLastCommittedBatchID(pending); err != nil {
		return nil, err
	}
	return cmds, nil
}

// Claim collects every fully-settled, unclaimed amount owed to
// recipient across their committed batches and advances their claim
// cursor accordingly. Batches whose epoch has not yet ended remain
// unclaimed; calling Claim again before any new batch commits is a
// no-op.
func (v *Vault) Claim(recipient chain.Address, now uint64) (uint64, []chain.Command, error) {
	lastCommitted, hasCommitted := v.ubl.LastCommittedBatchID()
	if !hasCommitted {
		return 0, nil, nil
	}
	start, hasStart := v.ubl.LastClaimedBatch(recipient)
	var from chain.BatchID
	if hasStart {
		from = start + 1
	}

	var total uint64
	lastFullyClaimed := start
	haveClaimed := hasStart
	for b := from; b <= lastCommitted; b++ {
		unbondedValue := v.ubl.UnbondedValueInBatch(recipient, b)
		if unbondedValue == 0 {
			continue
		}
		epoch, ok := v.ubl.CommittedBatchEpoch(b)
		if !ok {
			return 0, nil, fmt.Errorf("%w: committed batch missing epoch", chain.ErrInvariantBroken)
		}
		if epoch.End > now {
			// First not-yet-expired batch stops the walk: later
			// batches cannot have expired either since epochs are
			// non-decreasing with batch id.
			break
		}
		batchUnbondValue := v.ubl.BatchUnbondValue(b)
		batchClaimable := v.ubl.BatchClaimableAmount(b)
		if batchUnbondValue == 0 {
			continue
		}
		claim, err := mulOverflowCheck(unbondedValue, batchClaimable)
		if err != nil {
			return 0, nil, err
		}
		claim /= batchUnbondValue
		total += claim
		lastFullyClaimed = b
		haveClaimed = true
	}

	if total == 0 {
		return 0, nil, nil
	}
	if haveClaimed {
		if err := v.ubl.setLastClaimedBatch(recipient, lastFullyClaimed); err != nil {
			return 0, nil, err
		}
	}
	cmd, err := v.strategy.SendClaimed(total, recipient)
	if err != nil {
		return 0, nil, err
	}
	return total, []chain.Command{cmd}, nil
}

func sharesDenom(id chain.VaultID) chain.Denom {
	return chain.Denom(fmt.Sprintf("vaultshare/%s", id))
}

func mulOverflowCheck(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	result := a * b
	if result/a != b {
		return 0, fmt.Errorf("%w: multiplication overflow", chain.ErrInvariantBroken)
	}
	return result, nil
}

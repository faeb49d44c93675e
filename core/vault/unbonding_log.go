package vault

import (
	"encoding/binary"
	"fmt"

	"synthub/core/chain"
)

// UnbondingLog tracks unbonding batches and per-recipient claim cursors
// for a single vault, keyed under "unbonding_log::<vaultID>::..." in the
// host store. Batch ids are used directly as map keys rather than real
// pointers: the per-recipient entry chain is a singly linked list of
// batch ids, and NextEntered follows it to let a caller walk a recipient's
// history without knowing the committed batch range, the way
// original_source's `next_entered_batch` map does.
type UnbondingLog struct {
	store  chain.StateRW
	vaultID chain.VaultID
}

// NewUnbondingLog wraps store for the named vault.
func NewUnbondingLog(store chain.StateRW, vaultID chain.VaultID) *UnbondingLog {
	return &UnbondingLog{store: store, vaultID: vaultID}
}

func (l *UnbondingLog) ns(parts ...string) []byte {
	key := fmt.Sprintf("unbonding_log::%s", l.vaultID)
	for _, p := range parts {
		key += "::" + p
	}
	return []byte(key)
}

func (l *UnbondingLog) getU64(key []byte) (uint64, bool) {
	raw, err := l.store.GetState(key)
	if err != nil || len(raw) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(raw), true
}

func (l *UnbondingLog) setU64(key []byte, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return l.store.SetState(key, buf)
}

func batchKey(b chain.BatchID) string { return fmt.Sprintf("%d", uint64(b)) }

// LastCommittedBatchID returns the most recently committed batch id and
// whether any batch has been committed yet.
func (l *UnbondingLog) LastCommittedBatchID() (chain.BatchID, bool) {
	v, ok := l.getU64(l.ns("last_committed_batch_id"))
	return chain.BatchID(v), ok
}

func (l *UnbondingLog) setLastCommittedBatchID(b chain.BatchID) error {
	return l.setU64(l.ns("last_committed_batch_id"), uint64(b))
}

// PendingBatchID is the currently open (uncommitted) batch: the one
// immediately after the last committed batch. It always exists
// conceptually, even if nothing has entered it yet.
func (l *UnbondingLog) PendingBatchID() chain.BatchID {
	last, ok := l.LastCommittedBatchID()
	if !ok {
		return 0
	}
	return last + 1
}

// BatchUnbondValue returns the total underlying value requested to
// unbond in batch b.
func (l *UnbondingLog) BatchUnbondValue(b chain.BatchID) uint64 {
	v, _ := l.getU64(l.ns("batch_unbond_value", batchKey(b)))
	return v
}

func (l *UnbondingLog) addBatchUnbondValue(b chain.BatchID, delta uint64) error {
	cur, _ := l.getU64(l.ns("batch_unbond_value", batchKey(b)))
	next := cur + delta
	if next < cur {
		return fmt.Errorf("%w: batch unbond value overflow", chain.ErrInvariantBroken)
	}
	return l.setU64(l.ns("batch_unbond_value", batchKey(b)), next)
}

// BatchClaimableAmount returns the amount a committed batch actually
// settled to, which can be less than BatchUnbondValue if the strategy
// applied a haircut.
func (l *UnbondingLog) BatchClaimableAmount(b chain.BatchID) uint64 {
	v, _ := l.getU64(l.ns("batch_claimable_amount", batchKey(b)))
	return v
}

func (l *UnbondingLog) setBatchClaimableAmount(b chain.BatchID, amount uint64) error {
	return l.setU64(l.ns("batch_claimable_amount", batchKey(b)), amount)
}

// PendingBatchHint returns the strategy-specific retry hint recorded
// against a not-yet-ready batch, if any.
func (l *UnbondingLog) PendingBatchHint(b chain.BatchID) (uint64, bool) {
	return l.getU64(l.ns("pending_batch_hint", batchKey(b)))
}

func (l *UnbondingLog) setPendingBatchHint(b chain.BatchID, hint uint64) error {
	return l.setU64(l.ns("pending_batch_hint", batchKey(b)), hint)
}

// CommittedBatchEpoch returns the settlement window of a committed
// batch.
func (l *UnbondingLog) CommittedBatchEpoch(b chain.BatchID) (Epoch, bool) {
	start, ok1 := l.getU64(l.ns("committed_batch_epoch_start", batchKey(b)))
	end, ok2 := l.getU64(l.ns("committed_batch_epoch_end", batchKey(b)))
	if !ok1 || !ok2 {
		return Epoch{}, false
	}
	return Epoch{Start: start, End: end}, true
}

func (l *UnbondingLog) setCommittedBatchEpoch(b chain.BatchID, epoch Epoch) error {
	if err := l.setU64(l.ns("committed_batch_epoch_start", batchKey(b)), epoch.Start); err != nil {
		return err
	}
	return l.setU64(l.ns("committed_batch_epoch_end", batchKey(b)), epoch.End)
}

// FirstEnteredBatch returns the first batch a recipient ever entered.
func (l *UnbondingLog) FirstEnteredBatch(recipient chain.Address) (chain.BatchID, bool) {
	v, ok := l.getU64(l.ns("first_entered_batch", recipient.Hex()))
	return chain.BatchID(v), ok
}

func (l *UnbondingLog) setFirstEnteredBatch(recipient chain.Address, b chain.BatchID) error {
	return l.setU64(l.ns("first_entered_batch", recipient.Hex()), uint64(b))
}

// LastEnteredBatch returns the most recent batch a recipient entered.
func (l *UnbondingLog) LastEnteredBatch(recipient chain.Address) (chain.BatchID, bool) {
	v, ok := l.getU64(l.ns("last_entered_batch", recipient.Hex()))
	return chain.BatchID(v), ok
}

func (l *UnbondingLog) setLastEnteredBatch(recipient chain.Address, b chain.BatchID) error {
	return l.setU64(l.ns("last_entered_batch", recipient.Hex()), uint64(b))
}

// NextEnteredBatch walks a recipient's entry chain forward from batch b.
func (l *UnbondingLog) NextEnteredBatch(recipient chain.Address, b chain.BatchID) (chain.BatchID, bool) {
	v, ok := l.getU64(l.ns("next_entered_batch", recipient.Hex(), batchKey(b)))
	return chain.BatchID(v), ok
}

func (l *UnbondingLog) linkEntry(recipient chain.Address, previous, next chain.BatchID) error {
	return l.setU64(l.ns("next_entered_batch", recipient.Hex(), batchKey(previous)), uint64(next))
}

// LastClaimedBatch returns the last batch id whose claim a recipient has
// fully collected.
func (l *UnbondingLog) LastClaimedBatch(recipient chain.Address) (chain.BatchID, bool) {
	v, ok := l.getU64(l.ns("last_claimed_batch", recipient.Hex()))
	return chain.BatchID(v), ok
}

func (l *UnbondingLog) setLastClaimedBatch(recipient chain.Address, b chain.BatchID) error {
	return l.setU64(l.ns("last_claimed_batch", recipient.Hex()), uint64(b))
}

// UnbondedValueInBatch returns the underlying value a recipient
// requested to unbond within a specific batch.
func (l *UnbondingLog) UnbondedValueInBatch(recipient chain.Address, b chain.BatchID) uint64 {
	v, _ := l.getU64(l.ns("unbonded_value_in_batch", recipient.Hex(), batchKey(b)))
	return v
}

func (l *UnbondingLog) addUnbondedValueInBatch(recipient chain.Address, b chain.BatchID, delta uint64) error {
	cur := l.UnbondedValueInBatch(recipient, b)
	next := cur + delta
	if next < cur {
		return fmt.Errorf("%w: recipient unbonded value overflow", chain.ErrInvariantBroken)
	}
	return l.setU64(l.ns("unbonded_value_in_batch", recipient.Hex(), batchKey(b)), next)
}

// enterBatch records recipient entering the currently pending batch b
// with the given unbonded value, extending their entry chain if b is
// new to them.
func (l *UnbondingLog) enterBatch(recipient chain.Address, b chain.BatchID, value uint64) error {
	if _, hasFirst := l.FirstEnteredBatch(recipient); !hasFirst {
		if err := l.setFirstEnteredBatch(recipient, b); err != nil {
			return err
		}
	}
	if last, hasLast := l.LastEnteredBatch(recipient); !hasLast || last != b {
		if hasLast {
			if err := l.linkEntry(recipient, last, b); err != nil {
				return err
			}
		}
		if err := l.setLastEnteredBatch(recipient, b); err != nil {
			return err
		}
	}
	return l.addUnbondedValueInBatch(recipient, b, value)
}

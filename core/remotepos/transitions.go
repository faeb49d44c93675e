package remotepos

import (
	"fmt"

	"synthub/core/chain"
)

// Reconcile drives the FSM forward from Idle. If nothing needs doing it
// stays Idle and returns no commands. Otherwise it issues the first
// phase with work and transitions to Pending.
func (f *FSM) Reconcile(height uint64) ([]chain.Command, error) {
	st, err := f.load()
	if err != nil {
		return nil, err
	}
	if st.Status != StatusIdle {
		return nil, fmt.Errorf("%w: reconcile already in progress", chain.ErrInvalidState)
	}

	cmds, err := f.advanceFromIdle(st, height)
	if err != nil {
		return nil, err
	}
	if err := f.save(st); err != nil {
		return nil, err
	}
	return cmds, nil
}

// advanceFromIdle mutates st in place, walking forward from the
// current resting phase until it finds one with work, issuing it and
// entering Pending — or leaving st in Idle if the whole cycle is
// empty.
func (f *FSM) advanceFromIdle(st *state, height uint64) ([]chain.Command, error) {
	phase := st.Phase

	// One-time setup phases always have work the first time through.
	if phase == PhaseSetupRewardsAddress || phase == PhaseSetupAuthz {
		cmds, err := f.buildAndStage(st, phase, height)
		if err != nil {
			return nil, err
		}
		return f.commitPhase(st, phase, cmds), nil
	}

	// Steady state. Resting at StartReconcile, scan the whole cycle for
	// the first phase with work; resting inside the cycle (after a phase
	// succeeded), scan forward from the current phase.
	if phase == PhaseStartReconcile && !f.hasAnyPendingWork(st) {
		return nil, nil
	}
	for _, candidate := range cyclePhases {
		if candidate < phase {
			continue
		}
		cmds, err := f.buildAndStage(st, candidate, height)
		if err != nil {
			return nil, err
		}
		if len(cmds) == 0 {
			continue
		}
		return f.commitPhase(st, candidate, cmds), nil
	}
	// Nothing left in the cycle produced messages: the cycle ends and
	// the FSM rests Idle at StartReconcile.
	st.Phase = PhaseStartReconcile
	return nil, nil
}

func (f *FSM) hasAnyPendingWork(st *state) bool {
	return st.PendingDeposit > 0 ||
		st.PendingUnbond > 0 ||
		st.UndelegatedLanded > 0 ||
		st.LastReportedRewardsBalance > 0 ||
		st.RedelegateRequest != nil
}

func (f *FSM) commitPhase(st *state, phase Phase, cmds []chain.Command) []chain.Command {
	st.Phase = phase
	st.Status = StatusPending
	st.MsgIssuedCount = len(cmds)
	st.MsgSuccessCount = 0
	return cmds
}

// buildAndStage constructs the outbound messages for phase and stages
// the amounts the phase will apply on success directly into st. Staged
// fields are the table-driven design's persisted stand-in for a
// closure: since the FSM is reconstructed fresh on every call, nothing
// can be carried in memory between Reconcile and the later
// HandleMessageSuccess that confirms it.
func (f *FSM) buildAndStage(st *state, phase Phase, height uint64) ([]chain.Command, error) {
	switch phase {
	case PhaseSetupRewardsAddress:
		return []chain.Command{{Kind: chain.CmdRemoteMessage, Memo: "SetRewardsWithdrawalAddress"}}, nil

	case PhaseSetupAuthz:
		return []chain.Command{{Kind: chain.CmdRemoteMessage, Memo: "GrantAuthzSend"}}, nil

	case PhaseRedelegate:
		if st.RedelegateRequest == nil {
			return nil, nil
		}
		req := *st.RedelegateRequest
		return []chain.Command{{Kind: chain.CmdRemoteMessage, Memo: fmt.Sprintf("Redelegate(%s->%s)", req.From, req.To)}}, nil

	case PhaseUndelegate:
		if st.PendingUnbond == 0 {
			return nil, nil
		}
		st.StagedUnbondAmount = st.PendingUnbond
		allocations := f.splitWithDustToFirstSlot(st.PendingUnbond)
		return f.remoteMessagesForAllocations("Undelegate", allocations), nil

	case PhaseTransferUndelegated:
		if st.UndelegatedLanded == 0 {
			return nil, nil
		}
		st.StagedTransferUndelegatedAmount = st.UndelegatedLanded
		return []chain.Command{{Kind: chain.CmdRemoteMessage, Amount: st.UndelegatedLanded, Memo: "TransferOutUndelegated"}}, nil

	case PhaseTransferPendingDeposits:
		if st.PendingDeposit == 0 {
			return nil, nil
		}
		st.StagedTransferDepositAmount = st.PendingDeposit
		return []chain.Command{{Kind: chain.CmdRemoteMessage, Amount: st.PendingDeposit, Memo: "TransferOutPendingDeposit"}}, nil

	case PhaseDelegate:
		return f.buildDelegatePhase(st, height)

	default:
		return nil, fmt.Errorf("%w: phase %s has no message contract", chain.ErrInvariantBroken, phase)
	}
}

func (f *FSM) remoteMessagesForAllocations(verb string, allocations []uint64) []chain.Command {
	cmds := make([]chain.Command, 0, len(allocations))
	for i, amount := range allocations {
		if amount == 0 {
			continue
		}
		cmds = append(cmds, chain.Command{
			Kind:   chain.CmdRemoteMessage,
			Amount: amount,
			Memo:   fmt.Sprintf("%s(%s,%d)", verb, f.cfg.Validators[i], amount),
		})
	}
	return cmds
}

func (f *FSM) buildDelegatePhase(st *state, height uint64) ([]chain.Command, error) {
	rewards := st.LastReportedRewardsBalance
	feeBps := computeFeeBps(f.cfg, st.LastReconcileHeight, height)
	var feeAmount uint64
	if rewards > 0 && feeBps > 0 {
		feeAmount = applyFeeBps(feeBps, rewards)
		if feeAmount >= rewards {
			feeAmount = 0
		}
	}
	rewardsReceivable := rewards - feeAmount
	toDelegate := st.InflightDeposit + rewardsReceivable

	st.StagedDelegateAmount = toDelegate
	st.StagedFeeAmount = feeAmount

	cmds := make([]chain.Command, 0, len(f.cfg.Validators)+2)
	if rewardsReceivable > 0 {
		cmds = append(cmds, chain.Command{Kind: chain.CmdRemoteMessage, Amount: rewardsReceivable, Memo: "SendRewardsReceivable"})
	}
	if feeAmount > 0 && f.cfg.FeeRecipient != nil {
		cmds = append(cmds, chain.Command{Kind: chain.CmdBankSend, Amount: feeAmount, Recipient: *f.cfg.FeeRecipient, Memo: "RemotePosFee"})
	}
	if toDelegate > 0 {
		allocations := f.splitWithDustToFirstSlot(toDelegate)
		cmds = append(cmds, f.remoteMessagesForAllocations("Delegate", allocations)...)
	}
	return cmds, nil
}

// splitWithDustToFirstSlot applies the configured weights to balance
// and folds any rounding deficit into the first slot, matching the
// split-balance algorithm's convention that the deficit "stays
// unallocated and must be absorbed by a designated first slot at the
// caller".
func (f *FSM) splitWithDustToFirstSlot(balance uint64) []uint64 {
	allocated, allocations := f.cfg.Weights.SplitBalance(balance)
	if dust := balance - allocated; dust > 0 && len(allocations) > 0 {
		allocations[0] += dust
	}
	return allocations
}

// applyPhaseSuccess performs the persisted state mutation that the
// spec associates with a phase's successful completion, using the
// amounts staged when the phase's messages were issued.
func applyPhaseSuccess(st *state, phase Phase, height uint64) {
	switch phase {
	case PhaseSetupRewardsAddress:
		st.RewardsAddressSet = true

	case PhaseSetupAuthz:
		st.AuthzGranted = true

	case PhaseRedelegate:
		st.RedelegateRequest = nil

	case PhaseUndelegate:
		st.Delegated -= st.StagedUnbondAmount
		st.UndelegatedLanded += st.StagedUnbondAmount
		st.TotalExpectedUnbonded += st.StagedUnbondAmount
		st.PendingUnbond = 0
		st.StagedUnbondAmount = 0

	case PhaseTransferUndelegated:
		st.UndelegatedLanded -= st.StagedTransferUndelegatedAmount
		st.StagedTransferUndelegatedAmount = 0

	case PhaseTransferPendingDeposits:
		st.InflightDeposit = st.StagedTransferDepositAmount
		st.PendingDeposit = 0
		st.StagedTransferDepositAmount = 0

	case PhaseDelegate:
		st.Delegated += st.StagedDelegateAmount
		st.InflightDeposit = 0
		st.InflightDelegation = 0
		st.InflightRewardsReceivable = 0
		st.InflightFeePayable = 0
		st.StagedDelegateAmount = 0
		st.StagedFeeAmount = 0
		st.LastReconcileHeight = height
		st.LastReportedRewardsBalance = 0
		st.Phase = PhaseStartReconcile
		st.Status = StatusIdle
	}
}

// HandleMessageSuccess records one successful outbound message for the
// in-flight phase. When every issued message has succeeded, the
// phase's effects apply and the FSM advances to the next phase (or
// back to Idle if the cycle just completed).
func (f *FSM) HandleMessageSuccess(height uint64) ([]chain.Command, error) {
	st, err := f.load()
	if err != nil {
		return nil, err
	}
	if st.Status != StatusPending {
		return nil, fmt.Errorf("%w: no message in flight", chain.ErrInvalidState)
	}
	st.MsgSuccessCount++
	if st.MsgSuccessCount < st.MsgIssuedCount {
		return nil, f.save(st)
	}

	completed := st.Phase
	applyPhaseSuccess(st, completed, height)

	if st.Status == StatusIdle {
		// Delegate's own completion already reset phase/status.
		return nil, f.save(st)
	}

	st.Phase = completed.Next()
	st.Status = StatusIdle
	cmds, err := f.advanceFromIdle(st, height)
	if err != nil {
		return nil, err
	}
	return cmds, f.save(st)
}

// HandleMessageError transitions the FSM to Failed. Remote async
// failures never surface to the triggering caller; they only move the
// FSM's own state.
func (f *FSM) HandleMessageError() error {
	st, err := f.load()
	if err != nil {
		return err
	}
	if st.Status != StatusPending {
		return fmt.Errorf("%w: no message in flight", chain.ErrInvalidState)
	}
	st.Status = StatusFailed
	return f.save(st)
}

// HandleTimeout is handled identically to an error: the FSM has no
// way to distinguish "lost" from "failed" at this layer.
func (f *FSM) HandleTimeout() error { return f.HandleMessageError() }

// ForceNext is the operator recovery action from Failed: it reissues
// the current phase's messages.
func (f *FSM) ForceNext(height uint64) ([]chain.Command, error) {
	st, err := f.load()
	if err != nil {
		return nil, err
	}
	if st.Status != StatusFailed {
		return nil, fmt.Errorf("%w: force-next only valid from failed", chain.ErrInvalidState)
	}
	cmds, err := f.buildAndStage(st, st.Phase, height)
	if err != nil {
		return nil, err
	}
	cmds = f.commitPhase(st, st.Phase, cmds)
	return cmds, f.save(st)
}

// Reset clears inflight counters and returns the FSM to Idle at
// StartReconcile, discarding any in-flight phase. Used by the operator
// when a remote failure leaves the FSM unable to make progress even
// with ForceNext.
func (f *FSM) Reset() error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.Status = StatusIdle
	st.Phase = PhaseStartReconcile
	st.MsgIssuedCount = 0
	st.MsgSuccessCount = 0
	st.InflightDeposit = 0
	st.InflightDelegation = 0
	st.InflightUnbond = 0
	st.InflightRewardsReceivable = 0
	st.InflightFeePayable = 0
	st.StagedUnbondAmount = 0
	st.StagedTransferUndelegatedAmount = 0
	st.StagedTransferDepositAmount = 0
	st.StagedDelegateAmount = 0
	st.StagedFeeAmount = 0
	return f.save(st)
}

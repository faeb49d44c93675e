package remotepos

// TxCount reports the maximum number of outbound messages a phase can
// produce for a validator set of the given size, used by the scheduler
// to budget how many phases' worth of messages fit in one outbound
// transaction of at most maxMsgCount messages.
func TxCount(phase Phase, validatorSetSize, maxMsgCount int) int {
	var n int
	switch phase {
	case PhaseSetupRewardsAddress, PhaseSetupAuthz, PhaseRedelegate, PhaseTransferUndelegated, PhaseTransferPendingDeposits:
		n = 1
	case PhaseUndelegate:
		n = validatorSetSize
	case PhaseDelegate:
		n = validatorSetSize + 2 // rewards-receivable + fee, plus one Delegate per slot
	default:
		n = 0
	}
	if maxMsgCount > 0 && n > maxMsgCount {
		return maxMsgCount
	}
	return n
}

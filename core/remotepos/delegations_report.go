package remotepos

// Delegation is one validator's reported remote delegation, as
// returned by an interchain query.
type Delegation struct {
	Validator string
	Amount    uint64
}

// DelegationsReport is a validated, slot-ordered view of a remote
// delegations query result.
type DelegationsReport struct {
	Height               uint64
	TotalDelegated       uint64
	DelegatedAmountsPerSlot []uint64
}

// NormalizeDelegationsReport validates a raw interchain query result
// against the configured validator set: every validator must appear
// exactly once, in which case the report is reordered into slot order
// and totaled; any mismatch — a missing validator or one outside the
// set — causes the whole report to be rejected rather than partially
// applied.
func NormalizeDelegationsReport(height uint64, delegations []Delegation, validators []string) (DelegationsReport, bool) {
	slotOf := make(map[string]int, len(validators))
	for i, v := range validators {
		slotOf[v] = i
	}

	amounts := make([]uint64, len(validators))
	count := make([]int, len(validators))
	for _, d := range delegations {
		slot, ok := slotOf[d.Validator]
		if !ok {
			return DelegationsReport{}, false
		}
		amounts[slot] = d.Amount
		count[slot]++
	}

	for _, c := range count {
		if c != 1 {
			return DelegationsReport{}, false
		}
	}

	var total uint64
	for _, a := range amounts {
		total += a
	}

	return DelegationsReport{
		Height:                  height,
		TotalDelegated:          total,
		DelegatedAmountsPerSlot: amounts,
	}, true
}

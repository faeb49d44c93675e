// Package remotepos implements the ordered, restartable reconciliation
// state machine that drives delegation, undelegation, reward collection
// and fee skimming against a remote proof-of-stake chain reachable only
// by asynchronous messages.
package remotepos

import (
	"encoding/json"
	"fmt"

	"synthub/core/chain"
	"synthub/core/numerics"
)

// Phase is one step of the reconcile sequence.
type Phase int

const (
	PhaseSetupRewardsAddress Phase = iota
	PhaseSetupAuthz
	PhaseStartReconcile
	PhaseRedelegate
	PhaseUndelegate
	PhaseTransferUndelegated
	PhaseTransferPendingDeposits
	PhaseDelegate
)

func (p Phase) String() string {
	switch p {
	case PhaseSetupRewardsAddress:
		return "setup_rewards_address"
	case PhaseSetupAuthz:
		return "setup_authz"
	case PhaseStartReconcile:
		return "start_reconcile"
	case PhaseRedelegate:
		return "redelegate"
	case PhaseUndelegate:
		return "undelegate"
	case PhaseTransferUndelegated:
		return "transfer_undelegated"
	case PhaseTransferPendingDeposits:
		return "transfer_pending_deposits"
	case PhaseDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// Next returns the phase that follows p in steady state: the one-time
// setup phases fall through into the repeating cycle, and the cycle
// wraps from Delegate back to StartReconcile rather than revisiting
// setup.
func (p Phase) Next() Phase {
	switch p {
	case PhaseSetupRewardsAddress:
		return PhaseSetupAuthz
	case PhaseSetupAuthz:
		return PhaseStartReconcile
	case PhaseStartReconcile:
		return PhaseRedelegate
	case PhaseRedelegate:
		return PhaseUndelegate
	case PhaseUndelegate:
		return PhaseTransferUndelegated
	case PhaseTransferUndelegated:
		return PhaseTransferPendingDeposits
	case PhaseTransferPendingDeposits:
		return PhaseDelegate
	case PhaseDelegate:
		return PhaseStartReconcile
	default:
		return PhaseStartReconcile
	}
}

// cyclePhases lists the phases scanned, in order, to find the next
// phase with work after a StartReconcile decision point.
var cyclePhases = []Phase{
	PhaseRedelegate,
	PhaseUndelegate,
	PhaseTransferUndelegated,
	PhaseTransferPendingDeposits,
	PhaseDelegate,
}

// Status is the FSM's coarse async-protocol state.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RedelegateRequest names an operator-issued redelegation.
type RedelegateRequest struct {
	From string
	To   string
}

// state is the JSON-persisted snapshot of the FSM. It is intentionally
// a single blob rather than scattered keys: every field changes
// together on every phase transition, so there is no benefit to
// per-field storage rows the way the vault's per-recipient unbonding
// log needs them.
type state struct {
	Phase  Phase
	Status Status

	MsgIssuedCount  int
	MsgSuccessCount int

	LastReconcileHeight uint64

	Delegated        uint64
	PendingDeposit   uint64
	PendingUnbond    uint64
	UndelegatedLanded uint64

	InflightDeposit           uint64
	InflightDelegation        uint64
	InflightUnbond            uint64
	InflightRewardsReceivable uint64
	InflightFeePayable        uint64

	LastReportedRewardsBalance uint64

	TotalActualUnbonded   uint64
	TotalExpectedUnbonded uint64
	AvailableToClaim      uint64

	LastUnbondTimestamp    uint64
	HasLastUnbondTimestamp bool

	RewardsAddressSet bool
	AuthzGranted      bool

	RedelegateRequest *RedelegateRequest

	// Staged* fields record the amount a phase committed to when its
	// messages were issued, so HandleMessageSuccess can apply the
	// correct effect even though the FSM is reconstructed fresh on
	// every call and carries no in-memory state between them.
	StagedUnbondAmount              uint64
	StagedTransferUndelegatedAmount uint64
	StagedTransferDepositAmount     uint64
	StagedDelegateAmount            uint64
	StagedFeeAmount                 uint64
}

// Config holds the fixed, instantiation-time parameters of the FSM.
type Config struct {
	ID                 string
	Validators         []string
	Weights            numerics.Weights
	MaxMsgCount        int
	FeeRecipient       *chain.Address
	MaxFeeBps          uint64
	FeeBpsBlockIncrement uint64
	FeePayoutCooldown  uint64
	DelegationAccount  chain.Address
	RewardsAccount     chain.Address

	// UnbondingPeriodSeconds is the remote chain's native unbonding
	// lockup. EstimatedBlockIntervalSeconds and FeePayoutCooldown
	// (reused from the fee schedule above) size the buffer window
	// added on top of it, matching original_source's
	// `(fee_payment_cooldown_blocks * 3) * estimated_block_time`.
	UnbondingPeriodSeconds        uint64
	EstimatedBlockIntervalSeconds uint64
	MinimumUnbondIntervalSeconds  uint64
}

// FSM is the reconciliation state machine for a single remote-POS
// vault strategy.
type FSM struct {
	store chain.StateRW
	cfg   Config
}

// New constructs an FSM bound to store for the given configuration.
// ValidateValidatorSet must be checked by the caller before New (typically
// at vault instantiation) so a duplicate validator is rejected before
// any state is written.
func New(store chain.StateRW, cfg Config) *FSM {
	return &FSM{store: store, cfg: cfg}
}

// ValidateValidatorSet rejects a set containing a duplicate validator,
// per the instantiation-time check.
func ValidateValidatorSet(validators []string) error {
	seen := make(map[string]struct{}, len(validators))
	for _, v := range validators {
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%w: duplicate validator %q in validator set", chain.ErrInvalidConfig, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func (f *FSM) key() []byte {
	return []byte(fmt.Sprintf("native_pos::%s::state", f.cfg.ID))
}

func (f *FSM) load() (*state, error) {
	raw, err := f.store.GetState(f.key())
	if err != nil {
		// Brand new FSM: the one-time setup phases have not run yet.
		return &state{Phase: PhaseSetupRewardsAddress, Status: StatusIdle}, nil
	}
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode remote-pos state: %w", err)
	}
	return &st, nil
}

func (f *FSM) save(st *state) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode remote-pos state: %w", err)
	}
	return f.store.SetState(f.key(), raw)
}

// Snapshot is the externally-observable view of the FSM, used by query
// handlers and tests.
type Snapshot struct {
	Phase               Phase
	Status              Status
	MsgIssuedCount      int
	MsgSuccessCount     int
	LastReconcileHeight uint64
	Delegated           uint64
	PendingDeposit      uint64
	PendingUnbond       uint64
}

// Snapshot returns the FSM's current observable state.
func (f *FSM) Snapshot() (Snapshot, error) {
	st, err := f.load()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Phase:               st.Phase,
		Status:              st.Status,
		MsgIssuedCount:      st.MsgIssuedCount,
		MsgSuccessCount:     st.MsgSuccessCount,
		LastReconcileHeight: st.LastReconcileHeight,
		Delegated:           st.Delegated,
		PendingDeposit:      st.PendingDeposit,
		PendingUnbond:       st.PendingUnbond,
	}, nil
}

// RequestDeposit records a new deposit waiting to be delegated on the
// next reconcile cycle.
func (f *FSM) RequestDeposit(amount uint64) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.PendingDeposit += amount
	return f.save(st)
}

// RequestUnbond records a new unbond waiting to be undelegated on the
// next reconcile cycle.
func (f *FSM) RequestUnbond(amount uint64) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.PendingUnbond += amount
	return f.save(st)
}

// RequestRedelegate records an operator-issued redelegation to run on
// the next reconcile cycle.
func (f *FSM) RequestRedelegate(from, to string) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.RedelegateRequest = &RedelegateRequest{From: from, To: to}
	return f.save(st)
}

// ReportRewards records the last-known remote rewards balance, as
// observed via an interchain query.
func (f *FSM) ReportRewards(amount uint64) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.LastReportedRewardsBalance = amount
	return f.save(st)
}

// ReportUndelegatedLanded records that a previously requested
// undelegation has settled on the remote chain and is ready to
// transfer home.
func (f *FSM) ReportUndelegatedLanded(amount uint64) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.UndelegatedLanded += amount
	return f.save(st)
}

// ReceiveUnbonded records previously-undelegated funds actually
// arriving home over IBC, crediting both the actual-unbonded tally and
// the claimable pool. The expected-unbonded tally is credited earlier,
// at Undelegate phase completion (applyPhaseSuccess), so the ratio of
// actual to expected reflects any remote-side shortfall as soon as
// funds land, before any claim is served.
func (f *FSM) ReceiveUnbonded(amount uint64) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.TotalActualUnbonded += amount
	st.AvailableToClaim += amount
	return f.save(st)
}

// UnbondedTotals reports the actual/expected unbonded tallies and the
// currently claimable pool, used by the remote-POS strategy adapter to
// apply the shortfall ratio when serving a claim.
func (f *FSM) UnbondedTotals() (actual, expected, availableToClaim uint64, err error) {
	st, err := f.load()
	if err != nil {
		return 0, 0, 0, err
	}
	return st.TotalActualUnbonded, st.TotalExpectedUnbonded, st.AvailableToClaim, nil
}

// ConsumeAvailableToClaim debits amount from the claimable pool,
// called once a claim has actually been paid out.
func (f *FSM) ConsumeAvailableToClaim(amount uint64) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	if amount > st.AvailableToClaim {
		return fmt.Errorf("%w: claim amount exceeds available-to-claim pool", chain.ErrInvariantBroken)
	}
	st.AvailableToClaim -= amount
	return f.save(st)
}

// Delegated returns the FSM's current delegated total, used by the
// strategy adapter to compute total deposits value.
func (f *FSM) Delegated() (uint64, error) {
	st, err := f.load()
	if err != nil {
		return 0, err
	}
	return st.Delegated, nil
}

// IsPending reports whether the FSM currently has a reconcile cycle in
// flight, used by the remote-POS strategy adapter to defer unbond
// decisions until the FSM settles.
func (f *FSM) IsPending() (bool, error) {
	st, err := f.load()
	if err != nil {
		return false, err
	}
	return st.Status == StatusPending, nil
}

// LastUnbondTimestamp returns the block time of the last unbond
// request, if any.
func (f *FSM) LastUnbondTimestamp() (ts uint64, ok bool, err error) {
	st, err := f.load()
	if err != nil {
		return 0, false, err
	}
	return st.LastUnbondTimestamp, st.HasLastUnbondTimestamp, nil
}

// RecordUnbondTimestamp stamps the current block time as the last
// unbond request time, used to enforce the minimum unbond interval.
func (f *FSM) RecordUnbondTimestamp(ts uint64) error {
	st, err := f.load()
	if err != nil {
		return err
	}
	st.LastUnbondTimestamp = ts
	st.HasLastUnbondTimestamp = true
	return f.save(st)
}

// PendingTotals returns the pending-deposit and pending-unbond
// counters, used by the strategy adapter's total-deposits-value
// calculation.
func (f *FSM) PendingTotals() (pendingDeposit, pendingUnbond uint64, err error) {
	st, err := f.load()
	if err != nil {
		return 0, 0, err
	}
	return st.PendingDeposit, st.PendingUnbond, nil
}

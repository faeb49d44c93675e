package hub

import "errors"

// Hub-specific sentinels layered on top of core/chain's shared
// taxonomy (Unauthorized, NotFound, InsufficientFunds, ZeroAmount,
// InvalidConfig, InvariantBroken already cover the rest).
var (
	ErrDepositsDisabled     = errors.New("deposits disabled")
	ErrAdvanceDisabled      = errors.New("advance disabled")
	ErrExceedsLTV           = errors.New("exceeds max ltv")
	ErrInsufficientCredit   = errors.New("insufficient credit and collateral")
	ErrSyntheticMismatch    = errors.New("synthetic mismatch")
	ErrCallbackSlotOccupied = errors.New("a hub callback is already pending")
)

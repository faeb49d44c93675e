package chain

import "errors"

// Error taxonomy shared across vault, hub, mint and remotepos. Each
// component wraps one of these sentinels with context via fmt.Errorf's
// %w verb so callers can classify failures with errors.Is.
var (
	// ErrUnauthorized is returned when the caller is not the sender the
	// operation requires (owner, admin, registered vault, proxy...).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced vault, batch, mint
	// entry or account simply does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists guards idempotent-create operations.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState is returned when an operation is attempted from a
	// state that does not permit it (e.g. advancing an FSM phase out of
	// order, claiming an uncommitted batch).
	ErrInvalidState = errors.New("invalid state")

	// ErrInsufficientFunds covers underfunded deposits, redemptions and
	// withdrawals.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrZeroAmount rejects degenerate zero-value operations up front.
	ErrZeroAmount = errors.New("zero amount")

	// ErrInvalidConfig flags malformed configuration at load time.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvariantBroken marks a condition that must never occur in
	// correct operation, such as an accounting overflow or a negative
	// balance. Components that hit it abort the operation rather than
	// silently continuing in a corrupted state.
	ErrInvariantBroken = errors.New("invariant broken")
)

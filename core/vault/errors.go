package vault

import "errors"

// ErrVaultLoss is returned when a vault's total deposits value has
// fallen to zero while shares remain outstanding, making it impossible
// to price new shares against the strategy's holdings.
var ErrVaultLoss = errors.New("vault loss: total deposits value is zero with shares outstanding")

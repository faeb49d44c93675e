package chain

import (
	"bytes"
	"fmt"
)

// AccessController manages role-based grants against a StateRW, keyed
// under "access:<addr-hex>:<role>" so a single address's roles can be
// listed with one prefix scan. It is the shared admin-role / whitelist
// primitive used by core/hub (admin role) and core/mint (admin role,
// minter whitelist).
type AccessController struct {
	store StateRW
}

// NewAccessController returns a controller backed by store.
func NewAccessController(store StateRW) *AccessController {
	return &AccessController{store: store}
}

func (ac *AccessController) key(addr Address, role string) []byte {
	return []byte(fmt.Sprintf("access:%s:%s", addr.Hex(), role))
}

// Grant assigns role to addr. Granting a role already held is a no-op,
// not an error, since the caller-facing operations (set_whitelisted,
// grant proxy) are idempotent by design.
func (ac *AccessController) Grant(addr Address, role string) error {
	return ac.store.SetState(ac.key(addr, role), []byte{1})
}

// Revoke removes role from addr. Revoking a role not held is a no-op.
func (ac *AccessController) Revoke(addr Address, role string) error {
	return ac.store.DeleteState(ac.key(addr, role))
}

// Has reports whether addr currently holds role.
func (ac *AccessController) Has(addr Address, role string) bool {
	ok, _ := ac.store.HasState(ac.key(addr, role))
	return ok
}

// Require returns ErrUnauthorized if addr does not hold role.
func (ac *AccessController) Require(addr Address, role string) error {
	if !ac.Has(addr, role) {
		return fmt.Errorf("%w: %s lacks role %q", ErrUnauthorized, addr.Short(), role)
	}
	return nil
}

// ListRoles returns every role currently granted to addr.
func (ac *AccessController) ListRoles(addr Address) ([]string, error) {
	prefix := []byte(fmt.Sprintf("access:%s:", addr.Hex()))
	it := ac.store.PrefixIterator(prefix)
	defer it.Close()

	var roles []string
	for it.Next() {
		parts := bytes.SplitN(it.Key(), []byte(":"), 3)
		if len(parts) == 3 {
			roles = append(roles, string(parts[2]))
		}
	}
	return roles, nil
}

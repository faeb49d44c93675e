// Package mint implements the synthetic-asset registry: synthetic
// creation, minter whitelisting, and the mint/burn operations every
// vault and hub account ultimately issue against.
package mint

import (
	"fmt"

	"synthub/core/chain"
)

// AdminRole is the role required to create synthetics and manage the
// minter whitelist.
const AdminRole = "mint_admin"

func whitelistRole(synthetic chain.Denom) string {
	return fmt.Sprintf("mint_whitelist:%s", synthetic)
}

// Registry tracks the ticker<->denom bijection, each synthetic's
// decimals, and the minter whitelist, and builds the mint and burn
// commands the host dispatcher executes.
type Registry struct {
	store  chain.StateRW
	access *chain.AccessController
}

// New constructs a Registry backed by store.
func New(store chain.StateRW) *Registry {
	return &Registry{store: store, access: chain.NewAccessController(store)}
}

func tickerKey(ticker chain.Ticker) []byte {
	return []byte(fmt.Sprintf("mint::ticker::%s", ticker))
}

func syntheticExistsKey(denom chain.Denom) []byte {
	return []byte(fmt.Sprintf("mint::synthetic::%s::exists", denom))
}

func syntheticDecimalsKey(denom chain.Denom) []byte {
	return []byte(fmt.Sprintf("mint::synthetic::%s::decimals", denom))
}

// TickerExists reports whether ticker already names a synthetic.
func (r *Registry) TickerExists(ticker chain.Ticker) bool {
	ok, _ := r.store.HasState(tickerKey(ticker))
	return ok
}

// SyntheticExists reports whether denom names a created synthetic.
func (r *Registry) SyntheticExists(denom chain.Denom) bool {
	ok, _ := r.store.HasState(syntheticExistsKey(denom))
	return ok
}

// IsWhitelisted reports whether minter may mint synthetic.
func (r *Registry) IsWhitelisted(minter chain.Address, synthetic chain.Denom) bool {
	return r.access.Has(minter, whitelistRole(synthetic))
}

// Decimals returns the decimals a synthetic was created with.
func (r *Registry) Decimals(denom chain.Denom) (chain.Decimals, error) {
	raw, err := r.store.GetState(syntheticDecimalsKey(denom))
	if err != nil || len(raw) != 1 {
		return 0, fmt.Errorf("%w: synthetic %s", chain.ErrNotFound, denom)
	}
	return chain.Decimals(raw[0]), nil
}

// syntheticDenomFromTicker derives the denom a ticker is created
// under. Tickers are already lower-cased by chain.NewTicker, so the
// denom and ticker are the same normalized string; the distinct
// "mint::ticker::" key namespace is what enforces the bijection
// (a ticker can only ever map to the synthetic created for it).
func syntheticDenomFromTicker(ticker chain.Ticker) chain.Denom {
	return chain.Denom(ticker)
}

// CreateSynthetic registers a new synthetic under ticker with the
// given decimals. Requires the admin role.
func (r *Registry) CreateSynthetic(admin chain.Address, ticker chain.Ticker, decimals chain.Decimals) (chain.Denom, error) {
	if err := r.access.Require(admin, AdminRole); err != nil {
		return "", err
	}
	if r.TickerExists(ticker) {
		return "", fmt.Errorf("%w: ticker %q", chain.ErrAlreadyExists, ticker)
	}
	denom := syntheticDenomFromTicker(ticker)
	if err := r.store.SetState(tickerKey(ticker), []byte(denom)); err != nil {
		return "", err
	}
	if err := r.store.SetState(syntheticExistsKey(denom), []byte{1}); err != nil {
		return "", err
	}
	if err := r.store.SetState(syntheticDecimalsKey(denom), []byte{byte(decimals)}); err != nil {
		return "", err
	}
	return denom, nil
}

// SetWhitelisted grants or revokes minter's permission to mint
// synthetic. Requires the admin role.
func (r *Registry) SetWhitelisted(admin, minter chain.Address, synthetic chain.Denom, whitelisted bool) error {
	if err := r.access.Require(admin, AdminRole); err != nil {
		return err
	}
	if !r.SyntheticExists(synthetic) {
		return fmt.Errorf("%w: synthetic %s", chain.ErrNotFound, synthetic)
	}
	if whitelisted {
		return r.access.Grant(minter, whitelistRole(synthetic))
	}
	return r.access.Revoke(minter, whitelistRole(synthetic))
}

// Mint builds the command minting amount of synthetic to recipient.
// minter must be whitelisted for synthetic.
func (r *Registry) Mint(minter chain.Address, synthetic chain.Denom, amount uint64, recipient chain.Address) (chain.Command, error) {
	if !r.SyntheticExists(synthetic) {
		return chain.Command{}, fmt.Errorf("%w: synthetic %s", chain.ErrNotFound, synthetic)
	}
	if amount == 0 {
		return chain.Command{}, chain.ErrZeroAmount
	}
	if !r.IsWhitelisted(minter, synthetic) {
		return chain.Command{}, fmt.Errorf("%w: %s is not a whitelisted minter for %s", chain.ErrUnauthorized, minter.Short(), synthetic)
	}
	return chain.Command{Kind: chain.CmdMint, Denom: synthetic, Amount: amount, Recipient: recipient, Sender: minter}, nil
}

// Burn builds the command burning amount of synthetic. Anyone holding
// the balance may burn it; the registry itself enforces no sender
// check, matching original_source's Mint::burn.
func (r *Registry) Burn(sender chain.Address, synthetic chain.Denom, amount uint64) (chain.Command, error) {
	if !r.SyntheticExists(synthetic) {
		return chain.Command{}, fmt.Errorf("%w: synthetic %s", chain.ErrNotFound, synthetic)
	}
	if amount == 0 {
		return chain.Command{}, chain.ErrZeroAmount
	}
	return chain.Command{Kind: chain.CmdBurn, Denom: synthetic, Amount: amount, Sender: sender}, nil
}

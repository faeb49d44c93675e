package hub

import (
	"encoding/json"
	"fmt"

	"synthub/core/chain"
)

func configKey(v chain.VaultID) []byte {
	return []byte(fmt.Sprintf("hub_balance_sheet::%s::config", v))
}

func balanceSheetKey(v chain.VaultID) []byte {
	return []byte(fmt.Sprintf("hub_balance_sheet::%s::state", v))
}

func accountKey(v chain.VaultID, a chain.Address) []byte {
	return []byte(fmt.Sprintf("hub_balance_sheet::%s::account::%s", v, a.Hex()))
}

func callbackKey() []byte {
	return []byte("hub_balance_sheet::pending_callback")
}

func globalKey() []byte {
	return []byte("hub_balance_sheet::global")
}

func getJSON[T any](store chain.StateRW, key []byte, out *T) (bool, error) {
	raw, err := store.GetState(key)
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON[T any](store chain.StateRW, key []byte, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.SetState(key, raw)
}

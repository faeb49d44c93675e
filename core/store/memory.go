// Package store provides an in-memory chain.StateRW implementation used
// by the daemon for local/dev deployments and by every package's test
// suite. A durable backend is expected to implement the same interface
// against a real KV engine; nothing in this module depends on that
// happening in-process.
package store

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"synthub/core/chain"
)

// Memory is a mutex-guarded, map-backed chain.StateRW whose prefix
// iterator sorts the matching keys.
type Memory struct {
	mu    sync.RWMutex
	state map[string][]byte
}

// New returns an empty Memory store.
func New() *Memory {
	return &Memory{state: make(map[string][]byte)}
}

func (m *Memory) GetState(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.state[string(key)]
	if !ok {
		return nil, fmt.Errorf("%w: key %x", chain.ErrNotFound, key)
	}
	cpy := make([]byte, len(val))
	copy(cpy, val)
	return cpy, nil
}

func (m *Memory) SetState(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := make([]byte, len(value))
	copy(cpy, value)
	m.state[string(key)] = cpy
	return nil
}

func (m *Memory) DeleteState(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, string(key))
	return nil
}

func (m *Memory) HasState(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.state[string(key)]
	return ok, nil
}

// PrefixIterator returns keys with the given prefix in ascending
// lexicographic order, snapshotted at call time.
func (m *Memory) PrefixIterator(prefix []byte) chain.StateIterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys [][]byte
	for key := range m.state {
		if bytes.HasPrefix([]byte(key), prefix) {
			keys = append(keys, []byte(key))
		}
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.state[string(k)]
	}
	return &memIterator{keys: keys, values: values, idx: -1}
}

type memIterator struct {
	keys   [][]byte
	values [][]byte
	idx    int
}

func (it *memIterator) Next() bool { it.idx++; return it.idx < len(it.keys) }
func (it *memIterator) Key() []byte {
	if it.idx < 0 || it.idx >= len(it.keys) {
		return nil
	}
	return it.keys[it.idx]
}
func (it *memIterator) Value() []byte {
	if it.idx < 0 || it.idx >= len(it.values) {
		return nil
	}
	return it.values[it.idx]
}
func (it *memIterator) Close() error { return nil }

package chain

import (
	"sort"
	"strings"
)

// fakeStore is a minimal in-package StateRW used only by this
// package's own tests, since core/store imports core/chain and cannot
// be imported back here.
type fakeStore struct {
	data map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{data: make(map[string][]byte)} }

func (f *fakeStore) GetState(key []byte) ([]byte, error) {
	v, ok := f.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) SetState(key, value []byte) error {
	f.data[string(key)] = value
	return nil
}

func (f *fakeStore) DeleteState(key []byte) error {
	delete(f.data, string(key))
	return nil
}

func (f *fakeStore) HasState(key []byte) (bool, error) {
	_, ok := f.data[string(key)]
	return ok, nil
}

func (f *fakeStore) PrefixIterator(prefix []byte) StateIterator {
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return &fakeIterator{store: f, keys: keys, idx: -1}
}

type fakeIterator struct {
	store *fakeStore
	keys  []string
	idx   int
}

func (it *fakeIterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *fakeIterator) Key() []byte   { return []byte(it.keys[it.idx]) }
func (it *fakeIterator) Value() []byte { return it.store.data[it.keys[it.idx]] }
func (it *fakeIterator) Close() error  { return nil }

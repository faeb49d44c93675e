package store

import (
	"errors"
	"testing"

	"synthub/core/chain"
)

func TestMemoryGetSetDelete(t *testing.T) {
	m := New()
	key := []byte("vault:1:total")

	if _, err := m.GetState(key); !errors.Is(err, chain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.SetState(key, []byte("100")); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	got, err := m.GetState(key)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if string(got) != "100" {
		t.Fatalf("expected 100, got %s", got)
	}

	ok, err := m.HasState(key)
	if err != nil || !ok {
		t.Fatalf("expected HasState true, got %v %v", ok, err)
	}

	if err := m.DeleteState(key); err != nil {
		t.Fatalf("DeleteState: %v", err)
	}
	if ok, _ := m.HasState(key); ok {
		t.Fatalf("expected key gone after delete")
	}
}

func TestMemoryGetStateIsolated(t *testing.T) {
	m := New()
	key := []byte("k")
	val := []byte("v")
	_ = m.SetState(key, val)
	val[0] = 'x'

	got, err := m.GetState(key)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("mutation of caller slice leaked into store: %s", got)
	}
}

func TestMemoryPrefixIteratorOrder(t *testing.T) {
	m := New()
	_ = m.SetState([]byte("vault:b"), []byte("2"))
	_ = m.SetState([]byte("vault:a"), []byte("1"))
	_ = m.SetState([]byte("vault:c"), []byte("3"))
	_ = m.SetState([]byte("other:a"), []byte("9"))

	it := m.PrefixIterator([]byte("vault:"))
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	want := []string{"vault:a", "vault:b", "vault:c"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}

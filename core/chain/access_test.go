package chain

import "testing"

func TestAccessControllerGrantHasRevoke(t *testing.T) {
	s := newFakeStore()
	ac := NewAccessController(s)
	var addr Address
	addr[0] = 1
	role := "admin"

	if ac.Has(addr, role) {
		t.Fatalf("expected role absent before grant")
	}
	if err := ac.Grant(addr, role); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if !ac.Has(addr, role) {
		t.Fatalf("expected role present after grant")
	}
	if err := ac.Require(addr, role); err != nil {
		t.Fatalf("Require: %v", err)
	}

	if err := ac.Revoke(addr, role); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if ac.Has(addr, role) {
		t.Fatalf("expected role absent after revoke")
	}
	if err := ac.Require(addr, role); err == nil {
		t.Fatalf("expected Require to fail once role is revoked")
	}
}

func TestAccessControllerListRoles(t *testing.T) {
	s := newFakeStore()
	ac := NewAccessController(s)
	var addr Address
	addr[0] = 2

	if err := ac.Grant(addr, "admin"); err != nil {
		t.Fatalf("Grant admin: %v", err)
	}
	if err := ac.Grant(addr, "minter"); err != nil {
		t.Fatalf("Grant minter: %v", err)
	}

	roles, err := ac.ListRoles(addr)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %v", roles)
	}
}

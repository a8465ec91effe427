package actor

import (
	"testing"

	"github.com/google/uuid"
)

func TestActor_CanDistribute(t *testing.T) {
	cases := []struct {
		roles []string
		want  bool
	}{
		{[]string{RoleSuperAdmin}, true},
		{[]string{RoleManager}, true},
		{[]string{RoleAgent}, false},
		{nil, false},
		{[]string{RoleAgent, RoleManager}, true},
	}
	for _, tc := range cases {
		if got := New(uuid.New(), tc.roles...).CanDistribute(); got != tc.want {
			t.Fatalf("roles %v: expected %v, got %v", tc.roles, tc.want, got)
		}
	}
	if !System().CanDistribute() {
		t.Fatal("expected system actor to distribute")
	}
}

func TestActor_UserID(t *testing.T) {
	if System().UserID() != nil {
		t.Fatal("expected nil user id for system actor")
	}
	id := uuid.New()
	if got := New(id).UserID(); got == nil || *got != id {
		t.Fatalf("expected %s, got %v", id, got)
	}
}

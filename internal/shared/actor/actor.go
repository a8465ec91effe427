// Package actor carries the identity of whoever triggers an engine operation.
// Services receive it explicitly instead of reading request state.
package actor

import (
	"slices"

	"telesales_backend/platform/httpkit"

	"github.com/google/uuid"
)

// Roles known to the engine.
const (
	RoleSuperAdmin = "super_admin"
	RoleManager    = "manager"
	RoleAgent      = "agent"
	RoleSystem     = "system"
)

// Actor is the caller of an operation.
type Actor struct {
	ID    uuid.UUID
	Roles []string
}

// New builds an actor from an id and its roles.
func New(id uuid.UUID, roles ...string) Actor {
	return Actor{ID: id, Roles: roles}
}

// System is the actor used by scheduled runs.
func System() Actor {
	return Actor{Roles: []string{RoleSystem}}
}

// FromIdentity converts an authenticated HTTP identity.
func FromIdentity(id httpkit.Identity) Actor {
	return Actor{ID: id.UserID(), Roles: slices.Clone(id.Roles())}
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// CanDistribute reports whether the actor may run or override lead distribution.
func (a Actor) CanDistribute() bool {
	return a.HasRole(RoleSuperAdmin) || a.HasRole(RoleManager) || a.HasRole(RoleSystem)
}

// IsSystem reports whether the actor is a scheduled run.
func (a Actor) IsSystem() bool {
	return a.HasRole(RoleSystem)
}

// UserID returns the actor id, or nil for the system actor.
func (a Actor) UserID() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

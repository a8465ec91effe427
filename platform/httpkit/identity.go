package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the caller as established by AuthRequired: the token subject
// and its roles (super_admin, manager or agent).
type Identity interface {
	UserID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

// tokenIdentity is authenticated whenever it carries a subject.
type tokenIdentity struct {
	subject uuid.UUID
	roles   []string
}

func (t tokenIdentity) UserID() uuid.UUID        { return t.subject }
func (t tokenIdentity) Roles() []string          { return t.roles }
func (t tokenIdentity) HasRole(role string) bool { return slices.Contains(t.roles, role) }
func (t tokenIdentity) IsAuthenticated() bool    { return t.subject != uuid.Nil }

// GetIdentity never fails; requests that skipped AuthRequired get an
// unauthenticated identity.
func GetIdentity(c *gin.Context) Identity {
	raw, _ := c.Get(ContextUserIDKey)
	subject, _ := raw.(uuid.UUID)
	if subject == uuid.Nil {
		return tokenIdentity{}
	}
	raw, _ = c.Get(ContextRolesKey)
	roles, _ := raw.([]string)
	return tokenIdentity{subject: subject, roles: roles}
}

// MustGetIdentity aborts with 401 and returns nil when the caller is anonymous.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if id.IsAuthenticated() {
		return id
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	return nil
}

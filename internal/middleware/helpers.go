// internal/middleware/helpers.go
package middleware

import (
	"carbon-portal/internal/domain/identity"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// GetIdentity returns the identity admitted by GuardMiddleware.Require.
func GetIdentity(c *gin.Context) (*identity.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*identity.Identity)
	return id, ok && id != nil
}

// MustGetIdentity gets the identity from context or panics
func MustGetIdentity(c *gin.Context) *identity.Identity {
	id, ok := GetIdentity(c)
	if !ok {
		panic("identity not found in context")
	}
	return id
}

// HasRole checks if the admitted identity has one of roles
func HasRole(c *gin.Context, roles ...identity.Role) bool {
	id, ok := GetIdentity(c)
	return ok && id.HasRole(roles...)
}

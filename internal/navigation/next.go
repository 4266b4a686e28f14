package navigation

import (
	"net/url"
	"strings"

	"carbon-portal/internal/domain/identity"
)

// Role areas; every path under one is reserved for that role.
const (
	EVOwnerArea  = "/ev-owner"
	BuyerArea    = "/buyer"
	VerifierArea = "/cva"
	AdminArea    = "/admin"
)

var areaRoles = map[string]identity.Role{
	EVOwnerArea:  identity.RoleEVOwner,
	BuyerArea:    identity.RoleBuyer,
	VerifierArea: identity.RoleVerifier,
	AdminArea:    identity.RoleAdmin,
}

// RequiredRoles returns the roles admitted to path, or nil when any
// identity may open it.
func RequiredRoles(path string) []identity.Role {
	for area, role := range areaRoles {
		if path == area || strings.HasPrefix(path, area+"/") {
			return []identity.Role{role}
		}
	}
	return nil
}

// LoginWithNext is the login view remembering where the visitor was going.
func LoginWithNext(requested string) string {
	if next, ok := SafeNext(requested); ok {
		return LoginPath + "?next=" + url.QueryEscape(next)
	}
	return LoginPath
}

// SafeNext accepts only local paths on the portal itself. Scheme-relative
// and backslash forms are rejected, as are the login and logout views.
func SafeNext(next string) (string, bool) {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	if u.Path == LoginPath || u.Path == LogoutPath {
		return "", false
	}
	return next, true
}

// DestinationFor is where id goes after login: next when it is safe and id
// may open it, the landing page otherwise.
func DestinationFor(id *identity.Identity, next string) string {
	landing := LandingFor(id)
	if id == nil || landing == LoginPath {
		return landing
	}
	p, ok := SafeNext(next)
	if !ok {
		return landing
	}
	u, _ := url.Parse(p)
	if roles := RequiredRoles(u.Path); len(roles) > 0 && !id.HasRole(roles...) {
		return landing
	}
	return p
}

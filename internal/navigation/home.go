package navigation

import "carbon-portal/internal/domain/identity"

var homePaths = map[identity.Role]string{
	identity.RoleEVOwner:  EVOwnerHomePath,
	identity.RoleBuyer:    BuyerHomePath,
	identity.RoleVerifier: VerifierHomePath,
	identity.RoleAdmin:    AdminHomePath,
}

// HomePathFor returns the dashboard of role. Unknown roles have no home.
func HomePathFor(role identity.Role) (string, bool) {
	p, ok := homePaths[role]
	return p, ok
}

// LandingFor is where a visitor goes from the root or right after login:
// the role's home, or the login view when there is no identity or the
// role has no home.
func LandingFor(id *identity.Identity) string {
	if id == nil {
		return LoginPath
	}
	if p, ok := HomePathFor(id.Role); ok {
		return p
	}
	return LoginPath
}

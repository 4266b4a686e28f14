// internal/domain/identity/entity.go
package identity

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// Role is the access level of an identity. The API carries it as a small
// integer code; Code and RoleFromCode are the only conversions.
type Role int

const (
	RoleUnknown  Role = 0
	RoleEVOwner  Role = 1
	RoleBuyer    Role = 2
	RoleVerifier Role = 3
	RoleAdmin    Role = 4
)

var roleNames = map[Role]string{
	RoleEVOwner:  "EV_OWNER",
	RoleBuyer:    "BUYER",
	RoleVerifier: "CVA",
	RoleAdmin:    "ADMIN",
}

// AllRoles lists the closed set of known roles in code order.
func AllRoles() []Role {
	return []Role{RoleEVOwner, RoleBuyer, RoleVerifier, RoleAdmin}
}

// RoleFromCode converts a wire code. Unknown codes are preserved, not rejected.
func RoleFromCode(code int) Role {
	return Role(code)
}

// Code returns the wire representation.
func (r Role) Code() int {
	return int(r)
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(r))
}

// ParseRole accepts the names produced by String, case-insensitively.
// "VERIFIER" is accepted as an alias of CVA.
func ParseRole(name string) (Role, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "VERIFIER" {
		return RoleVerifier, nil
	}
	for role, roleName := range roleNames {
		if roleName == n {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", name)
}

// Identity is the authenticated principal as returned by the API.
type Identity struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name,omitempty"`
	Role      Role           `json:"role"`
	Phone     string         `json:"phone,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with i.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.Metadata != nil {
		out.Metadata = maps.Clone(i.Metadata)
	}
	return &out
}

// DisplayName falls back to the email when no name is set.
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// HasRole reports whether the identity's role is one of roles.
func (i *Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// TokenPair is the credential pair issued by the login endpoint.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

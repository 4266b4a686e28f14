// internal/domain/identity/dto.go
package identity

// LoginRequest is the body posted to the API login endpoint and accepted by
// the portal login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SessionView is the JSON shape of GET /api/session.
type SessionView struct {
	Loading        bool      `json:"loading"`
	Authenticated  bool      `json:"authenticated"`
	Identity       *Identity `json:"identity,omitempty"`
	Home           string    `json:"home,omitempty"`
	TokenExpiresAt string    `json:"tokenExpiresAt,omitempty"`
}

// internal/pkg/session/types.go
package session

import (
	"context"
	"encoding/json"

	"carbon-portal/internal/domain/identity"
)

// Persisted key names. The file backend uses them as JSON fields, the redis
// backend as key suffixes.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Store persists the credential tokens and a serialized identity across
// process restarts. LoadIdentity returns (nil, nil) when nothing is cached;
// errors are reserved for genuine storage failures and wrap xerrors.ErrStorage.
type Store interface {
	SaveToken(ctx context.Context, accessToken, refreshToken string) error
	SaveIdentity(ctx context.Context, id *identity.Identity) error
	LoadIdentity(ctx context.Context) (*identity.Identity, error)
	HasToken(ctx context.Context) (bool, error)
	AccessToken(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// record is the whole persisted session as one document.
type record struct {
	AccessToken  string          `json:"accessToken,omitempty"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// decodeIdentity parses a cached identity. A value that does not parse is
// reported as absent together with the parse error so callers can log it.
func decodeIdentity(raw []byte) (*identity.Identity, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var id identity.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

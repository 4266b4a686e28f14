// internal/service/auth/gateway.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"carbon-portal/internal/apiclient"
	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/navigation"
	xerrors "carbon-portal/internal/pkg/errors"
	"carbon-portal/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// APIClient is the slice of the shared request layer the gateway uses.
type APIClient interface {
	Do(ctx context.Context, method, path string, body, out any, opts ...apiclient.RequestOption) error
}

// Navigator performs the full navigation that ends a logout.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) {}

// Endpoints locates the authentication calls relative to the API base URL.
type Endpoints struct {
	LoginPath string
	MePath    string
}

// AuthGateway is the only component that talks to the authentication API
// and the only writer of credentials into the session store.
type AuthGateway struct {
	api       APIClient
	store     session.Store
	navigator Navigator
	endpoints Endpoints
	logger    *zap.Logger

	// concurrent identity lookups share one request
	fetches singleflight.Group
}

func NewAuthGateway(
	api APIClient,
	store session.Store,
	navigator Navigator,
	endpoints Endpoints,
	logger *zap.Logger,
) *AuthGateway {
	if navigator == nil {
		navigator = nopNavigator{}
	}
	return &AuthGateway{
		api:       api,
		store:     store,
		navigator: navigator,
		endpoints: endpoints,
		logger:    logger,
	}
}

// ========== Login ==========

// Login exchanges credentials for tokens, stores them, then resolves and
// caches the identity. Failures are *xerrors.AuthError, except storage
// failures which wrap xerrors.ErrStorage.
func (g *AuthGateway) Login(ctx context.Context, email, password string) (*identity.Identity, error) {
	var tokens identity.TokenPair
	req := identity.LoginRequest{Email: email, Password: password}

	if err := g.api.Do(ctx, http.MethodPost, g.endpoints.LoginPath, req, &tokens, apiclient.Anonymous()); err != nil {
		authErr := classifyLoginError(err)
		g.logger.Info("login rejected",
			zap.String("email", email),
			zap.Stringer("kind", authErr.Kind),
			zap.Error(err),
		)
		return nil, authErr
	}

	if tokens.AccessToken == "" {
		return nil, xerrors.NewAuthError(xerrors.KindServer, "the server returned no access token", nil)
	}

	if err := g.store.SaveToken(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return nil, err
	}

	id := g.FetchCurrentIdentity(ctx)
	if id == nil {
		// Tokens without a resolvable identity are not a session.
		if err := g.store.Clear(ctx); err != nil {
			g.logger.Error("failed to roll back tokens after identity resolution failure", zap.Error(err))
		}
		g.logger.Warn("login succeeded but identity could not be resolved", zap.String("email", email))
		return nil, xerrors.NewAuthError(
			xerrors.KindIdentityResolutionFailed,
			"signed in, but your profile could not be loaded; please try again",
			nil,
		)
	}

	if err := g.store.SaveIdentity(ctx, id); err != nil {
		return nil, err
	}

	g.logger.Info("user logged in",
		zap.String("identity_id", id.ID),
		zap.String("email", id.Email),
		zap.Stringer("role", id.Role),
	)
	return id, nil
}

func classifyLoginError(err error) *xerrors.AuthError {
	var statusErr *apiclient.StatusError
	switch {
	case errors.As(err, &statusErr):
		reason := statusErr.Message
		if reason == "" || statusErr.StatusCode == http.StatusUnauthorized {
			reason = "invalid email or password"
		}
		return xerrors.NewAuthError(xerrors.KindInvalidCredentials, reason, err)
	case errors.Is(err, xerrors.ErrNetwork):
		return xerrors.NewAuthError(xerrors.KindNetwork, "could not reach the server; please retry", err)
	default:
		return xerrors.NewAuthError(xerrors.KindServer, "the server could not process the login; please retry", err)
	}
}

// ========== Current identity ==========

// FetchCurrentIdentity asks the API who the stored token belongs to. Any
// failure, including 401/403 and transport errors, yields nil. Concurrent
// lookups for the same token share one request.
func (g *AuthGateway) FetchCurrentIdentity(ctx context.Context) *identity.Identity {
	token, err := g.store.AccessToken(ctx)
	if err != nil {
		g.logger.Error("failed to read access token", zap.Error(err))
		return nil
	}
	if token == "" {
		return nil
	}

	// the shared call outlives any single caller's cancellation; the client
	// timeout still bounds it
	shared := context.WithoutCancel(ctx)
	v, _, joined := g.fetches.Do("me:"+token, func() (any, error) {
		return g.fetchCurrentIdentity(shared, token), nil
	})
	if joined {
		g.logger.Debug("joined in-flight identity lookup")
	}
	id, _ := v.(*identity.Identity)
	return id.Clone()
}

func (g *AuthGateway) fetchCurrentIdentity(ctx context.Context, token string) *identity.Identity {
	var id identity.Identity
	if err := g.api.Do(ctx, http.MethodGet, g.endpoints.MePath, nil, &id, apiclient.WithToken(token)); err != nil {
		g.logger.Debug("current identity unavailable", zap.Error(err))
		return nil
	}
	if id.ID == "" {
		g.logger.Debug("current identity response carried no id")
		return nil
	}
	return &id
}

// ========== Logout ==========

// Logout clears the local session and navigates to the login view. There
// is no server-side logout call.
func (g *AuthGateway) Logout(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return err
	}
	g.navigator.Navigate(ctx, navigation.LoginPath)
	return nil
}

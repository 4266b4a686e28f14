// internal/service/session/provider.go
package session

import (
	"context"
	"sync"
	"time"

	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/navigation"
	"carbon-portal/internal/pkg/jwt"
	store "carbon-portal/internal/pkg/session"

	"go.uber.org/zap"
)

// Gateway is what the provider needs from the auth gateway.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*identity.Identity, error)
	FetchCurrentIdentity(ctx context.Context) *identity.Identity
	Logout(ctx context.Context) error
}

// State is a consistent snapshot of the provider.
type State struct {
	Identity *identity.Identity
	Loading  bool
}

// IsAuthenticated reports whether an identity is resolved.
func (s State) IsAuthenticated() bool {
	return s.Identity != nil
}

// Provider holds "who is the current user" for the whole portal process.
// One instance is built at startup and handed to everything that needs it.
type Provider struct {
	gateway Gateway
	store   store.Store
	logger  *zap.Logger

	mu       sync.RWMutex
	identity *identity.Identity
	loading  bool
	// generation changes on every login, logout and forced logout; a slow
	// initialization only publishes its result if nothing happened meanwhile.
	generation uint64

	// loginMu serializes Login with caching an identity fetched during
	// initialization, so a slow fetch never overwrites a newer login.
	loginMu sync.Mutex

	initOnce sync.Once
	ready    chan struct{}

	subMu       sync.RWMutex
	subscribers map[int]func(Event)
	nextSubID   int
}

func NewProvider(gateway Gateway, sessionStore store.Store, logger *zap.Logger) *Provider {
	return &Provider{
		gateway:     gateway,
		store:       sessionStore,
		logger:      logger,
		loading:     true,
		ready:       make(chan struct{}),
		subscribers: make(map[int]func(Event)),
	}
}

// ========== Initialization ==========

// Init resolves the initial session. Only the first call does any work;
// later calls return immediately, even while the first is still running.
// It never fails: every error degrades to "not authenticated".
func (p *Provider) Init(ctx context.Context) {
	p.initOnce.Do(func() {
		p.initialize(ctx)
	})
}

// Ready is closed once the initial resolution has finished.
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

func (p *Provider) initialize(ctx context.Context) {
	p.mu.RLock()
	gen := p.generation
	p.mu.RUnlock()

	id := p.resolveInitialIdentity(ctx, gen)

	p.mu.Lock()
	if p.generation == gen {
		p.identity = id
	} else {
		p.logger.Debug("session changed during initialization, keeping the newer state")
	}
	p.loading = false
	current := p.identity.Clone()
	p.mu.Unlock()

	close(p.ready)

	if current != nil {
		p.logger.Info("session restored",
			zap.String("identity_id", current.ID),
			zap.Stringer("role", current.Role),
		)
	}
	p.emit(Event{Type: EventReady, Identity: current})
}

func (p *Provider) resolveInitialIdentity(ctx context.Context, gen uint64) *identity.Identity {
	hasToken, err := p.store.HasToken(ctx)
	if err != nil {
		p.logger.Error("failed to read session token", zap.Error(err))
		return nil
	}
	if !hasToken {
		return nil
	}

	cached, err := p.store.LoadIdentity(ctx)
	if err != nil {
		p.logger.Error("failed to read cached identity", zap.Error(err))
		return nil
	}
	if cached != nil {
		p.logTokenExpiry(ctx)
		return cached
	}

	id := p.gateway.FetchCurrentIdentity(ctx)
	if id == nil {
		p.logger.Info("stored token did not resolve to an identity")
		return nil
	}
	p.cacheFetchedIdentity(ctx, id, gen)
	p.logTokenExpiry(ctx)
	return id
}

func (p *Provider) cacheFetchedIdentity(ctx context.Context, id *identity.Identity, gen uint64) {
	p.loginMu.Lock()
	defer p.loginMu.Unlock()

	p.mu.RLock()
	stale := p.generation != gen
	p.mu.RUnlock()
	if stale {
		return
	}
	if err := p.store.SaveIdentity(ctx, id); err != nil {
		p.logger.Error("failed to cache resolved identity", zap.Error(err))
	}
}

// ========== Login / Logout ==========

// Login authenticates through the gateway. On failure the gateway's error
// is returned unchanged and the current identity is left as it was.
func (p *Provider) Login(ctx context.Context, email, password string) (*identity.Identity, error) {
	p.loginMu.Lock()
	id, err := p.gateway.Login(ctx, email, password)
	if err != nil {
		p.loginMu.Unlock()
		return nil, err
	}

	p.mu.Lock()
	p.identity = id.Clone()
	p.generation++
	p.mu.Unlock()
	p.loginMu.Unlock()

	p.logTokenExpiry(ctx)
	p.emit(Event{Type: EventLogin, Identity: id.Clone()})
	return id.Clone(), nil
}

// Logout forgets the identity before the gateway clears storage and
// navigates, so the login view never sees a stale identity.
func (p *Provider) Logout(ctx context.Context) error {
	p.forget()
	p.emit(Event{Type: EventLogout})
	return p.gateway.Logout(ctx)
}

// HandleUnauthorized is installed as the request layer's 401 hook. It routes
// the storage clear through the same path as an explicit logout.
func (p *Provider) HandleUnauthorized(ctx context.Context) {
	was := p.forget()
	if was != nil {
		p.logger.Warn("session rejected by the API, logging out",
			zap.String("identity_id", was.ID),
		)
	}
	p.emit(Event{Type: EventForceLogout, Reason: "session rejected by the server"})
	if err := p.gateway.Logout(ctx); err != nil {
		p.logger.Error("failed to clear session after 401", zap.Error(err))
	}
}

func (p *Provider) forget() *identity.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.identity
	p.identity = nil
	p.generation++
	return was
}

// ========== Readers ==========

// State returns identity and loading flag read together.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{Identity: p.identity.Clone(), Loading: p.loading}
}

// Identity returns a copy of the current identity, or nil.
func (p *Provider) Identity() *identity.Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity.Clone()
}

func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity != nil
}

// View is the session as served to portal views.
func (p *Provider) View(ctx context.Context) identity.SessionView {
	state := p.State()
	view := identity.SessionView{
		Loading:       state.Loading,
		Authenticated: state.IsAuthenticated(),
		Identity:      state.Identity,
	}
	if state.Identity != nil {
		if home, ok := navigation.HomePathFor(state.Identity.Role); ok {
			view.Home = home
		}
		if exp, ok := p.TokenExpiresAt(ctx); ok {
			view.TokenExpiresAt = exp.UTC().Format(time.RFC3339)
		}
	}
	return view
}

// TokenExpiresAt decodes the stored access token's exp claim, if any.
func (p *Provider) TokenExpiresAt(ctx context.Context) (time.Time, bool) {
	tok, err := p.store.AccessToken(ctx)
	if err != nil || tok == "" {
		return time.Time{}, false
	}
	return jwt.ExpiresAt(tok)
}

func (p *Provider) logTokenExpiry(ctx context.Context) {
	exp, ok := p.TokenExpiresAt(ctx)
	if !ok {
		return
	}
	if time.Now().After(exp) {
		p.logger.Warn("stored access token has expired; the API will reject it",
			zap.Time("expires_at", exp),
		)
		return
	}
	p.logger.Debug("access token expiry", zap.Time("expires_at", exp))
}

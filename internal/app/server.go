// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"carbon-portal/internal/apiclient"
	"carbon-portal/internal/config"
	"carbon-portal/internal/db"
	authHandler "carbon-portal/internal/handlers/auth"
	portalHandler "carbon-portal/internal/handlers/portal"
	wsHandler "carbon-portal/internal/handlers/websocket"
	"carbon-portal/internal/middleware"
	store "carbon-portal/internal/pkg/session"
	authUsecase "carbon-portal/internal/service/auth"
	sessionUsecase "carbon-portal/internal/service/session"
	"carbon-portal/internal/views"
	"carbon-portal/internal/websocket"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg      config.AppConfig
	logger   *zap.Logger
	http     *http.Server
	provider *sessionUsecase.Provider
	hub      *websocket.Hub
	redis    redis.UniversalClient

	ctx    context.Context
	cancel context.CancelFunc
}

// Portal is the object graph of one portal process.
type Portal struct {
	Client   *apiclient.Client
	Gateway  *authUsecase.AuthGateway
	Provider *sessionUsecase.Provider
	Hub      *websocket.Hub
	Handlers *Handlers
}

// NewPortal wires the request layer, gateway, provider and handlers around
// sessionStore. The 401 hook of the request layer is routed through the
// provider so both logout paths share one code path.
func NewPortal(cfg config.AppConfig, sessionStore store.Store, logger *zap.Logger) *Portal {
	client := apiclient.NewClient(cfg.APIBaseURL, cfg.APITimeout, sessionStore, logger)
	hub := websocket.NewHub(logger)

	gateway := authUsecase.NewAuthGateway(
		client,
		sessionStore,
		hub,
		authUsecase.Endpoints{
			LoginPath: cfg.APILoginPath,
			MePath:    cfg.APIMePath,
		},
		logger,
	)

	provider := sessionUsecase.NewProvider(gateway, sessionStore, logger)
	client.OnUnauthorized(provider.HandleUnauthorized)
	provider.Subscribe(hub.OnSessionEvent)

	return &Portal{
		Client:   client,
		Gateway:  gateway,
		Provider: provider,
		Hub:      hub,
		Handlers: &Handlers{
			AuthHandler:   authHandler.NewAuthHandler(provider, logger),
			PortalHandler: portalHandler.NewPortalHandler(provider, logger),
			WSHandler:     wsHandler.NewWebSocketHandler(hub, provider, logger),
			Guard:         middleware.NewGuardMiddleware(provider, views.RenderLoading, logger),
		},
	}
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{cfg: cfg, logger: logger, ctx: ctx, cancel: cancel}

	// ----- Session Store -----
	sessionStore, err := s.openStore(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	// ----- Portal -----
	portal := NewPortal(cfg, sessionStore, logger)
	s.provider = portal.Provider
	s.hub = portal.Hub

	engine, err := NewEngine(logger, portal.Handlers)
	if err != nil {
		cancel()
		return nil, err
	}

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) openStore(ctx context.Context) (store.Store, error) {
	switch s.cfg.SessionStore {
	case "file", "":
		path := s.cfg.SessionFile
		if path == "" {
			var err error
			if path, err = store.DefaultFilePath(); err != nil {
				return nil, fmt.Errorf("failed to resolve session file: %w", err)
			}
		}
		s.logger.Info("using file session store", zap.String("path", path))
		return store.NewFileStore(path, s.logger), nil

	case "redis":
		client, err := db.NewRedisClient(ctx, db.RedisConfig{
			ClusterMode: s.cfg.RedisCluster,
			Addresses:   []string{s.cfg.RedisAddr},
			Password:    s.cfg.RedisPass,
			DB:          s.cfg.RedisDB,
			PoolSize:    4,
		})
		if err != nil {
			return nil, err
		}
		s.redis = client
		s.logger.Info("using redis session store",
			zap.String("addr", s.cfg.RedisAddr),
			zap.String("namespace", s.cfg.SessionNamespace),
		)
		return store.NewRedisStore(client, s.cfg.SessionNamespace, s.logger), nil

	case "memory":
		s.logger.Warn("using in-memory session store; sessions will not survive a restart")
		return store.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q (want file, redis or memory)", s.cfg.SessionStore)
	}
}

// Start resolves the session in the background and serves HTTP until
// Shutdown is called.
func (s *Server) Start() error {
	go s.hub.Run(s.ctx)
	go s.provider.Init(s.ctx)

	s.logger.Info("portal listening",
		zap.String("addr", s.cfg.HTTPAddr),
		zap.String("api", s.cfg.APIBaseURL),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.cancel()
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			s.logger.Warn("failed to close redis client", zap.Error(cerr))
		}
	}
	return err
}

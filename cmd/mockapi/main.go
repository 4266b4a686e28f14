package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carbon-portal/internal/config"
	"carbon-portal/internal/mockapi"
	"carbon-portal/internal/pkg/jwt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	// ----- JWT Manager -----
	tokens, err := jwt.LoadAndBuild(jwt.Config{
		PrivPath: cfg.MockAPIKeyPath,
		Issuer:   cfg.MockAPIIssuer,
		Audience: cfg.MockAPIAudience,
		TTL:      cfg.MockAPITokenTTL,
		KID:      "mockapi",
	})
	if err != nil {
		logger.Fatal("failed to load JWT manager", zap.Error(err))
	}
	if cfg.MockAPIKeyPath == "" {
		logger.Warn("MOCKAPI_JWT_PRIVATE_KEY_PATH not set, signing with an ephemeral key")
	}

	// ----- Users -----
	roles, err := cfg.DemoRoles()
	if err != nil {
		logger.Fatal("invalid demo roles", zap.Error(err))
	}
	directory := mockapi.NewDirectory()
	if err := mockapi.SeedDemoUsers(directory, cfg.MockAPIDemoPassword, roles...); err != nil {
		logger.Fatal("failed to seed demo users", zap.Error(err))
	}
	logger.Info("seeded demo users", zap.Stringers("roles", roles))

	engine := mockapi.NewEngine(mockapi.NewHandler(directory, tokens, logger), logger)
	srv := &http.Server{
		Addr:              cfg.MockAPIAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("stub API listening", zap.String("addr", cfg.MockAPIAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("stub API failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("stub API shutdown failed", zap.Error(err))
	}
}

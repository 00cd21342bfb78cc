/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vacation engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment (.env supported)
  2. Build the structured logger
  3. Open the SQLite store
  4. Start the async notification dispatcher
  5. Bootstrap the initial admin account if the user table is empty
  6. Start the HTTP server with graceful shutdown

ENVIRONMENT:
  APP_HOST / APP_PORT       Bind address (default 0.0.0.0:8080)
  DB_PATH                   SQLite path, ":memory:" for in-memory
  LOG_LEVEL                 zap level (default info)
  AUTH_JWT_SECRET           HS256 signing secret
  ADMIN_EMAIL / ADMIN_PASSWORD  First-run administrator bootstrap

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for active
  requests, drain the event dispatcher, close the database.
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/auth"
	"github.com/warp/vacation-engine/config"
	"github.com/warp/vacation-engine/observability"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	dispatcher := vacation.NewAsyncDispatcher(&vacation.LogSink{Logger: logger}, cfg.Events.Buffer, logger)
	defer dispatcher.Close()

	service := vacation.NewService(store, dispatcher, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	if err := bootstrapAdmin(context.Background(), store, cfg, logger); err != nil {
		logger.Fatal("failed to bootstrap admin account", zap.Error(err))
	}

	handler := api.NewHandler(store, service, tokens, logger, cfg.Auth.BcryptCost)
	router := api.NewRouter(handler, tokens, cfg.App.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.App.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shut down", zap.Error(err))
	}

	logger.Info("server stopped")
}

// bootstrapAdmin creates the first administrator account when the user table
// is empty and bootstrap credentials are configured.
func bootstrapAdmin(ctx context.Context, store *sqlite.Store, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPassword == "" {
		return nil
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Auth.AdminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	admin := &vacation.User{
		ID:           vacation.NewUserID(),
		Name:         "Administrator",
		Email:        cfg.Auth.AdminEmail,
		Role:         vacation.RoleAdmin,
		PasswordHash: hash,
	}
	if err := store.SaveUser(ctx, admin); err != nil {
		return err
	}

	logger.Info("bootstrap admin account created", zap.String("email", cfg.Auth.AdminEmail))
	return nil
}

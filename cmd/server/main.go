package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/multiexpenses/internal/auth"
	"github.com/mmynk/multiexpenses/internal/config"
	"github.com/mmynk/multiexpenses/internal/handler"
	"github.com/mmynk/multiexpenses/internal/metrics"
	"github.com/mmynk/multiexpenses/internal/service"
	"github.com/mmynk/multiexpenses/internal/storage/sqlite"
	"github.com/mmynk/multiexpenses/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	m := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiration)
	authenticator := auth.NewPasswordAuthenticator(store)

	router := handler.NewRouter(handler.Deps{
		Auth:         service.NewAuthService(authenticator, jwtManager, store, m, logger),
		Users:        service.NewUserService(store, logger),
		Groups:       service.NewGroupService(store, logger),
		Members:      service.NewMemberService(store, logger),
		Invitations:  service.NewInvitationService(store, cfg.InvitationTTL, m, logger),
		Transactions: service.NewTransactionService(store, m, logger),
		Tokens:       jwtManager,
		Membership:   store,
		Metrics:      m,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

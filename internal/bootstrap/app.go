package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/userauth/internal/domain/auth"
	"github.com/yanqian/userauth/internal/infra/config"
)

const shutdownGrace = 10 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	secrets *auth.Secrets
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, secrets *auth.Secrets) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, secrets: secrets}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails. In-flight requests get shutdownGrace to finish.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting",
			"address", a.cfg.HTTP.Address,
			"secrets", a.secrets,
			"token_ttl", a.cfg.Auth.TokenTTL,
			"db_max_conns", a.cfg.Database.MaxConns,
		)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/userauth/internal/domain/auth"
	"github.com/yanqian/userauth/internal/infra/config"
	"github.com/yanqian/userauth/internal/infra/database"
	"github.com/yanqian/userauth/internal/infra/throttle"
	"github.com/yanqian/userauth/internal/infra/userrepo"
)

func provideSecrets(cfg *config.Config) (*auth.Secrets, error) {
	return auth.NewSecrets(cfg.Auth.HashKey, cfg.Auth.SigningKey)
}

func provideHasherConfig(cfg *config.Config) auth.HasherConfig {
	return auth.HasherConfig{
		Params: auth.Argon2Params{
			Memory:      cfg.Auth.Argon2.Memory,
			Iterations:  cfg.Auth.Argon2.Iterations,
			Parallelism: cfg.Auth.Argon2.Parallelism,
			SaltLength:  cfg.Auth.Argon2.SaltLength,
			KeyLength:   cfg.Auth.Argon2.KeyLength,
		},
		Concurrency: cfg.Auth.HashingConcurrency,
	}
}

func provideTokenService(secrets *auth.Secrets, cfg *config.Config, logger *slog.Logger) *auth.TokenService {
	return auth.NewTokenService(secrets, auth.TokenConfig{
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.TokenIssuer,
	}, logger)
}

// provideDatabase opens the bounded pool and applies pending migrations.
// A missing or unreachable database is fatal.
func provideDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.Pool, func(), error) {
	pool, err := database.Open(ctx, database.Config{
		DSN:            cfg.Database.DSN,
		MaxConns:       cfg.Database.MaxConns,
		MinConns:       cfg.Database.MinConns,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pool, pool.Close, nil
}

func provideUserRepository(pool *database.Pool) auth.Repository {
	return userrepo.NewPostgresRepository(pool)
}

// provideLoginThrottle prefers Valkey so limits hold across replicas and
// falls back to process memory when Valkey is disabled or unreachable.
func provideLoginThrottle(cfg *config.Config, logger *slog.Logger) (auth.LoginThrottle, func()) {
	noop := func() {}
	if !cfg.Auth.Throttle.Enabled {
		logger.Info("login throttle disabled")
		return auth.NewNoopThrottle(), noop
	}
	limits := throttle.Config{
		MaxFailures: cfg.Auth.Throttle.MaxFailures,
		Window:      cfg.Auth.Throttle.Window,
	}
	if cfg.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory throttle", "error", err)
			return throttle.NewMemoryStore(limits), noop
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory throttle", "error", err)
			return throttle.NewMemoryStore(limits), noop
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory throttle", "error", err)
			client.Close()
			return throttle.NewMemoryStore(limits), noop
		}
		logger.Info("valkey login throttle enabled", "addr", cfg.Valkey.Addr)
		return throttle.NewValkeyStore(client, limits, "login_failures"), client.Close
	}
	return throttle.NewMemoryStore(limits), noop
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}, nil
}

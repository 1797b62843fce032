//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/yanqian/userauth/internal/bootstrap"
	"github.com/yanqian/userauth/internal/domain/auth"
	"github.com/yanqian/userauth/internal/infra/config"
	httpiface "github.com/yanqian/userauth/internal/interface/http"
	"github.com/yanqian/userauth/pkg/logger"
)

func initializeApp(ctx context.Context) (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSecrets,
		provideHasherConfig,
		provideTokenService,
		provideDatabase,
		provideUserRepository,
		provideLoginThrottle,
		auth.NewArgon2Hasher,
		auth.NewDirectory,
		auth.NewService,
		auth.NewResolver,
		wire.Bind(new(auth.PasswordHasher), new(*auth.Argon2Hasher)),
		wire.Bind(new(auth.TokenIssuer), new(*auth.TokenService)),
		wire.Bind(new(auth.TokenValidator), new(*auth.TokenService)),
		wire.Bind(new(auth.UserDirectory), new(*auth.Directory)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/shopwarden/shopwarden/internal/auth"
	authpg "github.com/shopwarden/shopwarden/internal/auth/postgres"
	"github.com/shopwarden/shopwarden/internal/cart"
	"github.com/shopwarden/shopwarden/internal/config"
	"github.com/shopwarden/shopwarden/internal/mail"
	"github.com/shopwarden/shopwarden/internal/store"
)

// buildMailer picks the outbound mail implementation. An empty SMTP host
// selects the log-only mailer for local development.
func buildMailer(cfg *config.Config) (auth.Mailer, error) {
	if cfg.SMTP.Host == "" {
		return mail.NewLogMailer(nil), nil
	}
	return mail.NewSMTPMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.From,
		cfg.SMTP.User,
		cfg.SMTP.Password,
		cfg.SMTP.ResetURL,
	)
}

// buildService assembles the auth service and its leaves on top of an
// established connection pool.
func buildService(pool *pgxpool.Pool, cfg *config.Config) (*auth.Service, error) {
	issuer, err := auth.NewJWTIssuer(cfg.TokenSecrets()...)
	if err != nil {
		return nil, err
	}

	mailer, err := buildMailer(cfg)
	if err != nil {
		return nil, err
	}

	return auth.NewService(
		authpg.NewIdentityRepository(pool),
		auth.NewArgon2idHasher(),
		issuer,
		auth.NewResetTokenService(cfg.Reset.Window),
		mailer,
		cart.NewPostgresProvisioner(pool),
		cfg.Token.TTL,
	)
}

// connectAndBuild loads configuration, connects to the database, and
// assembles the service. The returned cleanup closes the pool.
func connectAndBuild(ctx context.Context, flags *pflag.FlagSet) (*auth.Service, *config.Config, func(), error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Database.URL == "" {
		return nil, nil, nil, oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (set %s)", config.EnvDatabaseURL)
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := buildService(pool, cfg)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	return svc, cfg, pool.Close, nil
}

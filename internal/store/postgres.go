// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

// Package store provides PostgreSQL connection management and schema
// migrations.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry configuration. Startup often races the database
// container; a short fibonacci backoff absorbs that window.
const (
	connectRetryBase = 500 * time.Millisecond
	connectRetryMax  = 10 * time.Second
)

// Connect opens a pgx connection pool and verifies it with a ping,
// retrying transient failures with capped fibonacci backoff.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse database URL").
			Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxDuration(connectRetryMax, retry.NewFibonacci(connectRetryBase))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		pool.Close()
		return nil, oops.Code("DB_PING_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}

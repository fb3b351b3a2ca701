// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

// Package cart provisions shopping carts for newly registered identities.
package cart

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopwarden/shopwarden/internal/auth"
)

// DB is the subset of pgxpool.Pool the provisioner uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProvisioner creates empty cart rows. Every identity gets exactly
// one cart at registration time; cart contents live outside this module.
type PostgresProvisioner struct {
	db DB
}

// NewPostgresProvisioner creates a new PostgresProvisioner.
func NewPostgresProvisioner(db DB) *PostgresProvisioner {
	return &PostgresProvisioner{db: db}
}

// ProvisionCart inserts an empty cart and returns its ID.
func (p *PostgresProvisioner) ProvisionCart(ctx context.Context) (ulid.ULID, error) {
	id := ulid.Make()
	now := time.Now().UTC()

	_, err := p.db.Exec(ctx, `
		INSERT INTO carts (id, items, created_at, updated_at)
		VALUES ($1, '[]'::jsonb, $2, $2)
	`, id.String(), now)
	if err != nil {
		return ulid.ULID{}, oops.Code("CART_PROVISION_FAILED").
			With("operation", "insert cart").
			Wrap(err)
	}
	return id, nil
}

// Compile-time interface check.
var _ auth.CartProvisioner = (*PostgresProvisioner)(nil)

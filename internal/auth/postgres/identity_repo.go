// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

// Package postgres provides PostgreSQL implementations of auth repositories.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopwarden/shopwarden/internal/auth"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in unit tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IdentityRepository implements auth.IdentityRepository using PostgreSQL.
// The reset ticket is embedded on the identities row (reset_token_hash,
// reset_expires_at); both columns NULL means no active ticket.
type IdentityRepository struct {
	db DB
}

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(db DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

const identityColumns = `id, email, first_name, last_name, age, password_hash, role,
	       cart_id, documents, reset_token_hash, reset_expires_at,
	       last_activity_at, created_at, updated_at`

// Create stores a new identity. A duplicate email maps to
// auth.ErrAlreadyExists via the unique-violation SQLSTATE.
func (r *IdentityRepository) Create(ctx context.Context, identity *auth.Identity) error {
	docsJSON, err := json.Marshal(identity.Documents)
	if err != nil {
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("operation", "marshal documents").
			Wrap(err)
	}

	var ticketHash *string
	var ticketExpiry *time.Time
	if identity.ResetTicket != nil {
		ticketHash = &identity.ResetTicket.TokenHash
		ticketExpiry = &identity.ResetTicket.ExpiresAt
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO identities (
			id, email, first_name, last_name, age, password_hash, role,
			cart_id, documents, reset_token_hash, reset_expires_at,
			last_activity_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		identity.ID.String(),
		identity.Email,
		identity.FirstName,
		identity.LastName,
		identity.Age,
		identity.PasswordHash,
		string(identity.Role),
		identity.CartID.String(),
		docsJSON,
		ticketHash,
		ticketExpiry,
		identity.LastActivityAt,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("IDENTITY_ALREADY_EXISTS").
				With("email", identity.Email).
				Wrap(auth.ErrAlreadyExists)
		}
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("operation", "insert identity").
			With("email", identity.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an identity by ID.
func (r *IdentityRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE id = $1
	`, id.String())

	identity, err := r.scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_ID_FAILED").
			With("operation", "get identity by id").
			With("id", id.String()).
			Wrap(err)
	}
	return identity, nil
}

// GetByEmail retrieves an identity by email. The service stores emails
// normalized; LOWER on the lookup side keeps legacy rows reachable.
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE LOWER(email) = LOWER($1)
	`, email)

	identity, err := r.scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_EMAIL_FAILED").
			With("operation", "get identity by email").
			With("email", email).
			Wrap(err)
	}
	return identity, nil
}

// Update persists the full identity record, including password hash, role,
// documents, and the embedded reset ticket, in a single write.
func (r *IdentityRepository) Update(ctx context.Context, identity *auth.Identity) error {
	docsJSON, err := json.Marshal(identity.Documents)
	if err != nil {
		return oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "marshal documents").
			Wrap(err)
	}

	var ticketHash *string
	var ticketExpiry *time.Time
	if identity.ResetTicket != nil {
		ticketHash = &identity.ResetTicket.TokenHash
		ticketExpiry = &identity.ResetTicket.ExpiresAt
	}

	result, err := r.db.Exec(ctx, `
		UPDATE identities SET
			email = $2,
			first_name = $3,
			last_name = $4,
			age = $5,
			password_hash = $6,
			role = $7,
			cart_id = $8,
			documents = $9,
			reset_token_hash = $10,
			reset_expires_at = $11,
			last_activity_at = $12,
			updated_at = $13
		WHERE id = $1
	`,
		identity.ID.String(),
		identity.Email,
		identity.FirstName,
		identity.LastName,
		identity.Age,
		identity.PasswordHash,
		string(identity.Role),
		identity.CartID.String(),
		docsJSON,
		ticketHash,
		ticketExpiry,
		identity.LastActivityAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "update identity").
			With("id", identity.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("IDENTITY_NOT_FOUND").
			With("id", identity.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ListByRole retrieves all identities with the given role, oldest first.
func (r *IdentityRepository) ListByRole(ctx context.Context, role auth.Role) ([]*auth.Identity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE role = $1
		ORDER BY created_at
	`, string(role))
	if err != nil {
		return nil, oops.Code("IDENTITY_LIST_FAILED").
			With("operation", "list identities by role").
			With("role", string(role)).
			Wrap(err)
	}
	defer rows.Close()

	var identities []*auth.Identity
	for rows.Next() {
		identity, err := r.scanIdentity(rows)
		if err != nil {
			return nil, oops.Code("IDENTITY_LIST_FAILED").
				With("operation", "scan identity row").
				Wrap(err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("IDENTITY_LIST_FAILED").
			With("operation", "iterate identities").
			Wrap(err)
	}
	return identities, nil
}

// DeleteInactiveBefore removes identities whose last activity is strictly
// before cutoff and returns the count. Rows exactly at the cutoff survive.
func (r *IdentityRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM identities WHERE last_activity_at < $1
	`, cutoff)
	if err != nil {
		return 0, oops.Code("IDENTITY_PURGE_FAILED").
			With("operation", "delete inactive identities").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// ClearExpiredTickets nulls out reset tickets whose expiry is strictly
// before now and returns the count of cleared rows.
func (r *IdentityRepository) ClearExpiredTickets(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE identities
		SET reset_token_hash = NULL, reset_expires_at = NULL
		WHERE reset_expires_at IS NOT NULL AND reset_expires_at < $1
	`, now)
	if err != nil {
		return 0, oops.Code("IDENTITY_SWEEP_FAILED").
			With("operation", "clear expired reset tickets").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanIdentity scans a single row into an Identity.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *IdentityRepository) scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var (
		idStr          string
		email          string
		firstName      string
		lastName       string
		age            int
		passwordHash   string
		roleStr        string
		cartIDStr      string
		docsJSON       []byte
		ticketHash     *string
		ticketExpiry   *time.Time
		lastActivityAt time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&idStr,
		&email,
		&firstName,
		&lastName,
		&age,
		&passwordHash,
		&roleStr,
		&cartIDStr,
		&docsJSON,
		&ticketHash,
		&ticketExpiry,
		&lastActivityAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("IDENTITY_SCAN_FAILED").
			With("operation", "scan identity").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}

	cartID, err := ulid.Parse(cartIDStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_INVALID_CART_ID").
			With("cart_id", cartIDStr).
			Wrap(err)
	}

	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_INVALID_ROLE").
			With("role", roleStr).
			Wrap(err)
	}

	var docs []auth.Document
	if len(docsJSON) > 0 {
		if err := json.Unmarshal(docsJSON, &docs); err != nil {
			return nil, oops.Code("IDENTITY_INVALID_DOCUMENTS").
				With("operation", "unmarshal documents").
				Wrap(err)
		}
	}

	var ticket *auth.ResetTicket
	if ticketHash != nil && ticketExpiry != nil {
		ticket = &auth.ResetTicket{TokenHash: *ticketHash, ExpiresAt: *ticketExpiry}
	}

	return &auth.Identity{
		ID:             id,
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Age:            age,
		PasswordHash:   passwordHash,
		Role:           role,
		CartID:         cartID,
		Documents:      docs,
		ResetTicket:    ticket,
		LastActivityAt: lastActivityAt,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.IdentityRepository = (*IdentityRepository)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role is the closed set of account roles. There is no free-form role
// string; transitions go through ToggleElevated.
type Role string

// The three roles. Privileged accounts are provisioned out of band and
// never produced by a toggle.
const (
	RoleStandard   Role = "standard"
	RoleElevated   Role = "elevated"
	RolePrivileged Role = "privileged"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleElevated, RolePrivileged:
		return true
	}
	return false
}

// ToggleElevated is the only supported role transition: standard becomes
// elevated and elevated becomes standard. Privileged does not participate.
func (r Role) ToggleElevated() (Role, error) {
	switch r {
	case RoleStandard:
		return RoleElevated, nil
	case RoleElevated:
		return RoleStandard, nil
	default:
		return r, oops.Code("ROLE_NOT_TOGGLEABLE").
			With("role", string(r)).
			Errorf("role %q cannot be toggled", string(r))
	}
}

// ParseRole converts a stored string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", oops.Code("ROLE_UNKNOWN").
			With("role", s).
			Errorf("unknown role %q", s)
	}
	return r, nil
}

// requiredDocuments is the exact, case-sensitive document set a standard
// account must have uploaded before it can be promoted. All are required;
// there is no partial credit.
var requiredDocuments = [...]string{
	"Identification",
	"ProofOfAddress",
	"ProofOfAccountStatus",
}

// RequiredDocuments returns the document names required for promotion.
// The returned slice is a copy; mutating it cannot weaken the gate.
func RequiredDocuments() []string {
	names := make([]string, len(requiredDocuments))
	copy(names, requiredDocuments[:])
	return names
}

// Document is a named file reference uploaded by an account holder.
type Document struct {
	Name       string    `json:"name"`
	Reference  string    `json:"reference"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// emailRegex is a pragmatic shape check; real validation happens when the
// reset mail bounces.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Identity represents an account. The embedded ResetTicket pointer is nil
// when no password reset is in flight.
type Identity struct {
	ID             ulid.ULID
	Email          string
	FirstName      string
	LastName       string
	Age            int
	PasswordHash   string
	Role           Role
	CartID         ulid.ULID
	Documents      []Document
	ResetTicket    *ResetTicket
	LastActivityAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewIdentity creates a validated Identity with a fresh ULID, a normalized
// email, the standard role, and the current time as last activity. The
// password hash must already be computed; this constructor never sees a
// plaintext.
func NewIdentity(email, firstName, lastName string, age int, passwordHash string, cartID ulid.ULID) (*Identity, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if firstName == "" {
		return nil, oops.Code("IDENTITY_INVALID_NAME").Errorf("first name cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("IDENTITY_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if cartID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("IDENTITY_INVALID_CART").Errorf("cart ID cannot be zero")
	}

	now := time.Now()
	return &Identity{
		ID:             ulid.Make(),
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Age:            age,
		PasswordHash:   passwordHash,
		Role:           RoleStandard,
		CartID:         cartID,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NormalizeEmail lower-cases and trims an email so it can serve as a
// case-insensitive lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the basic shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("IDENTITY_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("IDENTITY_INVALID_EMAIL").
			With("email", email).
			Errorf("email has invalid format")
	}
	return nil
}

// DisplayName returns the name used in outbound mail.
func (i *Identity) DisplayName() string {
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}

// HasDocuments reports whether every named document is present, by exact
// case-sensitive name match.
func (i *Identity) HasDocuments(names []string) bool {
	have := make(map[string]struct{}, len(i.Documents))
	for _, d := range i.Documents {
		have[d.Name] = struct{}{}
	}
	for _, n := range names {
		if _, ok := have[n]; !ok {
			return false
		}
	}
	return true
}

// TouchActivity records the current instant as the identity's last
// activity. Login and logout both call this.
func (i *Identity) TouchActivity(now time.Time) {
	i.LastActivityAt = now
	i.UpdatedAt = now
}

// Summary is the projection exposed by bulk listings. It deliberately
// carries no credential material.
type Summary struct {
	FirstName string
	LastName  string
	Email     string
	Role      Role
}

// Summarize returns the listing projection of the identity.
func (i *Identity) Summarize() Summary {
	return Summary{
		FirstName: i.FirstName,
		LastName:  i.LastName,
		Email:     i.Email,
		Role:      i.Role,
	}
}

// IdentityRepository manages identity persistence. The embedded reset
// ticket travels with the identity row; Update persists the full record
// including ticket and password changes in a single write.
type IdentityRepository interface {
	// Create stores a new identity. A duplicate email surfaces as
	// ErrAlreadyExists.
	Create(ctx context.Context, identity *Identity) error

	// GetByID retrieves an identity by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Identity, error)

	// GetByEmail retrieves an identity by normalized email.
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	// Update upserts the full identity record.
	Update(ctx context.Context, identity *Identity) error

	// ListByRole retrieves all identities with the given role.
	ListByRole(ctx context.Context, role Role) ([]*Identity, error)

	// DeleteInactiveBefore removes identities whose last activity is
	// strictly before cutoff and returns the count. Identities exactly at
	// the cutoff instant are retained.
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// ClearExpiredTickets removes reset tickets whose expiry is strictly
	// before now and returns the count of cleared rows.
	ClearExpiredTickets(ctx context.Context, now time.Time) (int64, error)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Mailer dispatches password-reset mail. Failures surface to the caller;
// they are never swallowed.
type Mailer interface {
	SendResetEmail(ctx context.Context, address, displayName, token string) error
}

// CartProvisioner creates the default cart resource attached to every new
// identity. Invoked exactly once per registration.
type CartProvisioner interface {
	ProvisionCart(ctx context.Context) (ulid.ULID, error)
}

// RegisterParams carries the profile fields and plaintext password for a
// registration. The plaintext never outlives the call.
type RegisterParams struct {
	Email     string
	FirstName string
	LastName  string
	Age       int
	Password  string
}

// dummyPasswordHash is verified when a login names an unknown email, so
// that response time does not reveal whether the account exists. It is not
// a credential; no password hashes to it.
//
//nolint:gosec // G101: intentionally fake digest for timing-attack prevention.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates the credential lifecycle: registration, login,
// logout, password reset, role promotion, and inactivity purges. All
// persistent reads and writes go through the IdentityRepository; hashing,
// token, and ticket work is delegated to the injected leaves.
type Service struct {
	identities IdentityRepository
	hasher     PasswordHasher
	tokens     TokenIssuer
	resets     *ResetTokenService
	mailer     Mailer
	carts      CartProvisioner
	sessionTTL time.Duration
}

// NewService creates a Service. All dependencies are required.
func NewService(
	identities IdentityRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	resets *ResetTokenService,
	mailer Mailer,
	carts CartProvisioner,
	sessionTTL time.Duration,
) (*Service, error) {
	if identities == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("identity repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("token issuer is required")
	}
	if resets == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("reset token service is required")
	}
	if mailer == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("mailer is required")
	}
	if carts == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("cart provisioner is required")
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		resets:     resets,
		mailer:     mailer,
		carts:      carts,
		sessionTTL: sessionTTL,
	}, nil
}

// SessionTTL returns the configured session token lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates a new identity with a freshly provisioned cart and
// returns it together with a session token.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Identity, string, error) {
	email := NormalizeEmail(params.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}

	existing, err := s.identities.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get identity by email").
			Wrap(err)
	}
	if existing != nil {
		return nil, "", oops.Code("AUTH_ALREADY_EXISTS").
			With("email", email).
			Wrap(ErrAlreadyExists)
	}

	cartID, err := s.carts.ProvisionCart(ctx)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "provision cart").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	identity, err := NewIdentity(email, params.FirstName, params.LastName, params.Age, hash, cartID)
	if err != nil {
		return nil, "", err
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a race with a concurrent registration for the same email.
			return nil, "", oops.Code("AUTH_ALREADY_EXISTS").
				With("email", email).
				Wrap(ErrAlreadyExists)
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create identity").
			Wrap(err)
	}

	token, err := s.tokens.Issue(identity, s.sessionTTL)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	return identity, token, nil
}

// Login authenticates by email and password and returns the identity with
// a fresh session token. Unknown email and wrong password are
// indistinguishable to the caller, and verification runs in both cases to
// keep response timing flat.
func (s *Service) Login(ctx context.Context, email, password string) (*Identity, string, error) {
	email = NormalizeEmail(email)

	identity, lookupErr := s.identities.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	exists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get identity by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = identity.PasswordHash
		exists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !exists {
			// The dummy digest can fail verification structurally; that is
			// still just invalid credentials.
			return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !exists || !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	identity.TouchActivity(time.Now())
	// Best effort: login succeeds even if the activity write fails.
	_ = s.identities.Update(ctx, identity) //nolint:errcheck

	token, err := s.tokens.Issue(identity, s.sessionTTL)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	return identity, token, nil
}

// Logout records last activity for the identity. Sessions are stateless;
// the caller discards the bearer token (see ClearSessionCookie).
func (s *Service) Logout(ctx context.Context, id ulid.ULID) error {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_IDENTITY_NOT_FOUND").
				With("id", id.String()).
				Wrap(ErrNotFound)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get identity by id").
			Wrap(err)
	}

	identity.TouchActivity(time.Now())
	if err := s.identities.Update(ctx, identity); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "update last activity").
			Wrap(err)
	}
	return nil
}

// RequestPasswordReset creates a reset ticket for the identity and mails
// the plaintext token. The ticket write and the mail dispatch are not
// atomic: a persisted ticket whose mail failed remains valid, and the user
// may retry.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_IDENTITY_NOT_FOUND").
				With("email", email).
				Wrap(ErrNotFound)
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get identity by email").
			Wrap(err)
	}

	token, err := s.resets.RequestReset(identity)
	if err != nil {
		return err
	}

	if err := s.identities.Update(ctx, identity); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "persist reset ticket").
			Wrap(err)
	}

	if err := s.mailer.SendResetEmail(ctx, identity.Email, identity.DisplayName(), token); err != nil {
		return oops.Code("MAIL_DELIVERY_FAILED").
			With("operation", "send reset email").
			Wrap(err)
	}
	return nil
}

// ResetPassword completes the reset flow: it validates the presented
// token, rejects a password identical to the current one, and replaces the
// hash and clears the ticket in a single store write.
//
// On ErrTicketExpired nothing is mutated; the caller should direct the
// user to request a new ticket.
func (s *Service) ResetPassword(ctx context.Context, email, presented, newPassword string) error {
	email = NormalizeEmail(email)

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_IDENTITY_NOT_FOUND").
				With("email", email).
				Wrap(ErrNotFound)
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "get identity by email").
			Wrap(err)
	}

	if err := s.resets.Consume(identity, presented); err != nil {
		return err
	}

	same, err := s.hasher.Verify(newPassword, identity.PasswordHash)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "verify against current hash").
			Wrap(err)
	}
	if same {
		return oops.Code("RESET_SAME_PASSWORD").Wrap(ErrSamePassword)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	now := time.Now()
	identity.PasswordHash = hash
	identity.ResetTicket = nil
	identity.UpdatedAt = now

	if err := s.identities.Update(ctx, identity); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "persist new password").
			Wrap(err)
	}
	return nil
}

// PromoteToElevatedRole toggles an identity between the standard and
// elevated roles, provided the full required document set is present.
// The toggle is the only supported transition; calling it twice returns
// the identity to its original role.
func (s *Service) PromoteToElevatedRole(ctx context.Context, id ulid.ULID) (Role, error) {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_IDENTITY_NOT_FOUND").
				With("id", id.String()).
				Wrap(ErrNotFound)
		}
		return "", oops.Code("AUTH_PROMOTE_FAILED").
			With("operation", "get identity by id").
			Wrap(err)
	}

	if !identity.HasDocuments(RequiredDocuments()) {
		return "", oops.Code("AUTH_INCOMPLETE_DOCUMENTATION").
			With("required", RequiredDocuments()).
			Wrap(ErrIncompleteDocumentation)
	}

	newRole, err := identity.Role.ToggleElevated()
	if err != nil {
		return "", oops.Code("AUTH_PROMOTE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}

	identity.Role = newRole
	identity.UpdatedAt = time.Now()
	if err := s.identities.Update(ctx, identity); err != nil {
		return "", oops.Code("AUTH_PROMOTE_FAILED").
			With("operation", "persist role").
			Wrap(err)
	}

	return newRole, nil
}

// ListStandardIdentities returns the listing projection of every
// standard-role identity.
func (s *Service) ListStandardIdentities(ctx context.Context) ([]Summary, error) {
	identities, err := s.identities.ListByRole(ctx, RoleStandard)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_FAILED").
			With("operation", "list by role").
			Wrap(err)
	}

	summaries := make([]Summary, 0, len(identities))
	for _, identity := range identities {
		summaries = append(summaries, identity.Summarize())
	}
	return summaries, nil
}

// PurgeInactive deletes identities whose last activity is strictly older
// than the window and returns the count. An identity active exactly at
// the cutoff instant is retained.
func (s *Service) PurgeInactive(ctx context.Context, window time.Duration) (int64, error) {
	if window <= 0 {
		return 0, oops.Code("AUTH_PURGE_FAILED").Errorf("inactivity window must be positive")
	}
	cutoff := time.Now().Add(-window)
	count, err := s.identities.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, oops.Code("AUTH_PURGE_FAILED").
			With("operation", "delete inactive identities").
			Wrap(err)
	}
	return count, nil
}

// ClearExpiredTickets removes stale reset tickets left behind by the
// lenient consume path. Run periodically by the sweep job.
func (s *Service) ClearExpiredTickets(ctx context.Context) (int64, error) {
	count, err := s.identities.ClearExpiredTickets(ctx, time.Now())
	if err != nil {
		return 0, oops.Code("AUTH_SWEEP_FAILED").
			With("operation", "clear expired tickets").
			Wrap(err)
	}
	return count, nil
}

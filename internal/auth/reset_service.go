// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import (
	"time"

	"github.com/samber/oops"
)

// ResetTokenService manages the reset-ticket lifecycle on an identity.
// It mutates only the in-memory identity; persisting the change is the
// caller's single store write.
type ResetTokenService struct {
	window time.Duration
	now    func() time.Time
}

// NewResetTokenService creates a ResetTokenService. A non-positive window
// falls back to ResetTokenExpiry.
func NewResetTokenService(window time.Duration) *ResetTokenService {
	if window <= 0 {
		window = ResetTokenExpiry
	}
	return &ResetTokenService{window: window, now: time.Now}
}

// Window returns the configured reset window.
func (s *ResetTokenService) Window() time.Duration {
	return s.window
}

// RequestReset attaches a fresh ticket to the identity and returns the
// plaintext token for mail dispatch. Any prior ticket is superseded, not
// accumulated: the last request wins.
func (s *ResetTokenService) RequestReset(identity *Identity) (string, error) {
	if identity == nil {
		return "", oops.Code("RESET_REQUEST_FAILED").Errorf("identity cannot be nil")
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GenerateResetToken").
			Wrap(err)
	}

	now := s.now()
	ticket, err := NewResetTicket(hash, now.Add(s.window))
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "NewResetTicket").
			Wrap(err)
	}

	identity.ResetTicket = ticket
	identity.UpdatedAt = now
	return token, nil
}

// Consume validates a presented token against the identity's ticket.
//
//   - no active ticket: ErrInvalidToken
//   - hash mismatch (constant-time compare): ErrInvalidToken
//   - expired: ErrTicketExpired; the stale ticket is left in place and the
//     sweep job clears it later
//   - valid: nil; the caller must clear the ticket together with the
//     password write
func (s *ResetTokenService) Consume(identity *Identity, presented string) error {
	if identity == nil {
		return oops.Code("RESET_CONSUME_FAILED").Errorf("identity cannot be nil")
	}

	ticket := identity.ResetTicket
	if ticket == nil {
		return oops.Code("RESET_TOKEN_INVALID").
			With("reason", "no active ticket").
			Wrap(ErrInvalidToken)
	}

	if !VerifyResetToken(presented, ticket.TokenHash) {
		return oops.Code("RESET_TOKEN_INVALID").
			With("reason", "token mismatch").
			Wrap(ErrInvalidToken)
	}

	if ticket.IsExpiredAt(s.now()) {
		return oops.Code("RESET_TOKEN_EXPIRED").Wrap(ErrTicketExpired)
	}

	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes  = 32        // 32 bytes = 64 hex chars, 256 bits of entropy
	ResetTokenExpiry = time.Hour // default reset window
)

// ResetTicket is a single-use, time-boxed proof of password-reset
// eligibility, embedded on the identity record. Only the SHA-256 hash of
// the token is stored; the plaintext exists only in the outbound mail.
type ResetTicket struct {
	TokenHash string
	ExpiresAt time.Time
}

// NewResetTicket creates a validated ResetTicket.
func NewResetTicket(tokenHash string, expiresAt time.Time) (*ResetTicket, error) {
	if tokenHash == "" {
		return nil, oops.Code("RESET_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("RESET_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &ResetTicket{TokenHash: tokenHash, ExpiresAt: expiresAt}, nil
}

// IsExpiredAt reports whether the ticket is past its expiry at the given
// instant. The boundary instant itself is still valid.
func (t *ResetTicket) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// GenerateResetToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext token goes
// to the user; only the hash is persisted.
func GenerateResetToken() (token, hash string, err error) {
	tokenBytes := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashResetToken(token)

	return token, hash, nil
}

// HashResetToken computes the SHA-256 hash of a reset token.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyResetToken checks the plaintext token against the stored hash in
// constant time. Empty input fails closed.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

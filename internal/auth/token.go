// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultSessionTTL is the session token lifetime when none is configured.
const DefaultSessionTTL = time.Hour

// Claims is the identity envelope carried inside a session token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IdentityID returns the subject claim parsed back into a ULID.
func (c *Claims) IdentityID() (ulid.ULID, error) {
	id, err := ulid.Parse(c.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("TOKEN_INVALID_SUBJECT").
			With("subject", c.Subject).
			Wrap(ErrInvalidToken)
	}
	return id, nil
}

// TokenIssuer issues and verifies stateless signed session tokens.
type TokenIssuer interface {
	// Issue returns a signed bearer token for the identity, valid for ttl.
	Issue(identity *Identity, ttl time.Duration) (string, error)

	// Verify checks signature and expiry and returns the claims. Any
	// anomaly - expired, tampered, malformed, wrong algorithm - fails
	// closed with ErrInvalidToken.
	Verify(token string) (*Claims, error)
}

// JWTIssuer implements TokenIssuer with HMAC-SHA256 signed JWTs.
//
// Secrets are injected at startup and never logged. The first secret signs
// new tokens; every listed secret verifies, so a secret can be rotated by
// prepending its replacement and keeping the old one until outstanding
// tokens expire.
type JWTIssuer struct {
	secrets [][]byte
}

// NewJWTIssuer creates a JWTIssuer from one or more secrets. At least one
// non-empty secret is required.
func NewJWTIssuer(secrets ...[]byte) (*JWTIssuer, error) {
	if len(secrets) == 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("at least one signing secret is required")
	}
	for _, s := range secrets {
		if len(s) == 0 {
			return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("signing secret cannot be empty")
		}
	}
	return &JWTIssuer{secrets: secrets}, nil
}

// Issue returns a signed bearer token for the identity.
func (j *JWTIssuer) Issue(identity *Identity, ttl time.Duration) (string, error) {
	if identity == nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").Errorf("identity cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: identity.Email,
		Role:  identity.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secrets[0])
	if err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").
			With("operation", "sign token").
			Wrap(err)
	}
	return signed, nil
}

// Verify checks signature and expiry against every configured secret.
func (j *JWTIssuer) Verify(token string) (*Claims, error) {
	var lastErr error
	for _, secret := range j.secrets {
		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			// Pin the algorithm; an attacker-chosen alg header must not
			// downgrade verification.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, oops.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			lastErr = err
			continue
		}
		if !parsed.Valid {
			lastErr = oops.Errorf("token not valid")
			continue
		}
		return claims, nil
	}

	// Expired, tampered, and malformed all collapse to the same kind.
	return nil, oops.Code("TOKEN_INVALID").
		With("cause", lastErr).
		Wrap(ErrInvalidToken)
}

// Compile-time interface check.
var _ TokenIssuer = (*JWTIssuer)(nil)

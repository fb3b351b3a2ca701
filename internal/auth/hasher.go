// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Argon2idParams holds the argon2id cost parameters embedded in each digest.
type Argon2idParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2idParams returns OWASP-recommended parameters.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:    1,
		Memory:  64 * 1024, // 64 MB
		Threads: 4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted argon2id digest of the password. The same
	// plaintext yields a different digest on every call.
	Hash(password string) (string, error)

	// Verify checks the password against a digest in constant time.
	// Returns (true, nil) on match, (false, nil) on mismatch, or
	// (false, error) on a malformed digest. Never panics.
	Verify(password, digest string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id in PHC string
// format ($argon2id$v=19$m=...,t=...,p=...$salt$key).
type Argon2idHasher struct {
	params Argon2idParams
}

// NewArgon2idHasher creates an Argon2idHasher with default parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2idParams()}
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with explicit
// parameters. Zero fields fall back to the defaults.
func NewArgon2idHasherWithParams(p Argon2idParams) *Argon2idHasher {
	def := DefaultArgon2idParams()
	if p.Time == 0 {
		p.Time = def.Time
	}
	if p.Memory == 0 {
		p.Memory = def.Memory
	}
	if p.Threads == 0 {
		p.Threads = def.Threads
	}
	if p.SaltLen == 0 {
		p.SaltLen = def.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = def.KeyLen
	}
	return &Argon2idHasher{params: p}
}

// Hash produces a salted argon2id digest of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify checks the password against a PHC-encoded argon2id digest.
func (h *Argon2idHasher) Verify(password, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid digest format")
	}

	if parts[1] != "argon2id" {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	// Threads must fit in uint8; reject rather than truncate silently.
	if threads == 0 || threads > 255 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}

	keyLen := len(expected)
	if keyLen == 0 || keyLen > 1<<10 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid digest key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return true, nil
	}
	return false, nil
}

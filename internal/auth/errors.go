// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import "errors"

// Sentinel error kinds. Stable for errors.Is and for mapping to boundary
// responses; services wrap these with oops codes for structured context.
var (
	// ErrNotFound is returned when a requested identity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when registering an email that is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for a missing, mismatched, tampered, or
	// malformed token. Fail closed: structural anomalies are not reported
	// separately.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTicketExpired is returned when a reset ticket exists and matches
	// but its expiry has passed.
	ErrTicketExpired = errors.New("reset ticket expired")

	// ErrSamePassword is returned when a password reset presents the
	// password already in use.
	ErrSamePassword = errors.New("new password equals current password")

	// ErrIncompleteDocumentation is returned when a role promotion is
	// attempted without the full required document set.
	ErrIncompleteDocumentation = errors.New("incomplete documentation")
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie under which the bearer token travels.
const SessionCookieName = "warden_session"

// NewSessionCookie wraps a bearer token in a cookie scoped to the token's
// lifetime. HttpOnly keeps it away from client-side script; Secure is per
// deployment (TLS-terminated setups set it).
func NewSessionCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	maxAge := int(ttl / time.Second)
	if ttl > 0 && maxAge < 1 {
		// A MaxAge of 0 would demote the cookie to a session cookie;
		// sub-second lifetimes round up instead.
		maxAge = 1
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie returns the cookie that instructs the client to
// discard its session on logout. The server side is stateless; there is
// nothing else to revoke.
func ClearSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

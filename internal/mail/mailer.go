// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

// Package mail delivers transactional email. Only password-reset mail
// exists today.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/samber/oops"

	"github.com/shopwarden/shopwarden/internal/auth"
)

// SMTPMailer sends reset mail over plain SMTP with optional AUTH.
type SMTPMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	resetURL string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates an SMTPMailer. user may be empty for servers
// without authentication. resetURL is the page the mailed link points at;
// the token rides along as a query parameter.
func NewSMTPMailer(host string, port int, from, user, password, resetURL string) (*SMTPMailer, error) {
	if host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("SMTP host cannot be empty")
	}
	if from == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("from address cannot be empty")
	}
	if resetURL == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("reset URL cannot be empty")
	}
	if _, err := url.Parse(resetURL); err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("reset_url", resetURL).
			Wrap(err)
	}

	var a smtp.Auth
	if user != "" {
		a = smtp.PlainAuth("", user, password, host)
	}

	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		from:     from,
		auth:     a,
		resetURL: resetURL,
		send:     smtp.SendMail,
	}, nil
}

// SendResetEmail delivers the password-reset mail carrying the plaintext
// token link. The token never appears in logs or error context.
func (m *SMTPMailer) SendResetEmail(ctx context.Context, address, displayName, token string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_FAILED").Wrap(err)
	}

	link := m.resetURL
	if strings.Contains(link, "?") {
		link += "&token=" + url.QueryEscape(token)
	} else {
		link += "?token=" + url.QueryEscape(token)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", address)
	fmt.Fprintf(&msg, "Subject: Reset your password\r\n")
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "Hello %s,\r\n\r\n", displayName)
	fmt.Fprintf(&msg, "A password reset was requested for your account. Follow the link\r\n")
	fmt.Fprintf(&msg, "below within the next hour to choose a new password:\r\n\r\n")
	fmt.Fprintf(&msg, "    %s\r\n\r\n", link)
	fmt.Fprintf(&msg, "If you did not request this, you can safely ignore this mail.\r\n")

	if err := m.send(m.addr, m.auth, m.from, []string{address}, []byte(msg.String())); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "smtp send").
			With("to", address).
			Wrap(err)
	}
	return nil
}

// LogMailer writes reset notifications to the log instead of sending
// mail. For local development without an SMTP server. The token itself
// is still withheld from output.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendResetEmail logs that a reset was requested.
func (m *LogMailer) SendResetEmail(ctx context.Context, address, displayName, token string) error {
	m.logger.InfoContext(ctx, "password reset mail (dev mode, not sent)",
		"to", address,
		"display_name", displayName,
		"token_length", len(token),
	)
	return nil
}

// Compile-time interface checks.
var (
	_ auth.Mailer = (*SMTPMailer)(nil)
	_ auth.Mailer = (*LogMailer)(nil)
)

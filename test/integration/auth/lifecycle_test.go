// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

//go:build integration

package auth_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/shopwarden/shopwarden/internal/auth"
)

func registerParams(email string) auth.RegisterParams {
	return auth.RegisterParams{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Age:       30,
		Password:  "first-password-1",
	}
}

var _ = Describe("Credential Lifecycle", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupIdentities(ctx, env.pool)
	})

	Describe("Registration", func() {
		It("creates an identity with a provisioned cart and a session token", func() {
			identity, token, err := env.Service.Register(ctx, registerParams("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(identity.Role).To(Equal(auth.RoleStandard))
			Expect(identity.CartID).NotTo(Equal(ulid.ULID{}))

			var count int
			err = env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM carts WHERE id = $1", identity.CartID.String()).Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("rejects a duplicate email, case-insensitively", func() {
			_, _, err := env.Service.Register(ctx, registerParams("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = env.Service.Register(ctx, registerParams("ADA@Example.COM"))
			Expect(err).To(MatchError(auth.ErrAlreadyExists))
		})

		It("never stores the plaintext password", func() {
			identity, _, err := env.Service.Register(ctx, registerParams("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			stored, err := env.Identities.GetByID(ctx, identity.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.PasswordHash).To(HavePrefix("$argon2id$"))
			Expect(stored.PasswordHash).NotTo(ContainSubstring("first-password-1"))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, _, err := env.Service.Register(ctx, registerParams("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns a verifiable session token for valid credentials", func() {
			identity, token, err := env.Service.Login(ctx, "ada@example.com", "first-password-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.Email).To(Equal("ada@example.com"))
			Expect(token).NotTo(BeEmpty())
		})

		It("reports the same error for a wrong password and an unknown email", func() {
			_, _, wrongPassErr := env.Service.Login(ctx, "ada@example.com", "not-the-password")
			_, _, unknownErr := env.Service.Login(ctx, "nobody@example.com", "whatever")

			Expect(wrongPassErr).To(MatchError(auth.ErrInvalidCredentials))
			Expect(unknownErr).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("advances last activity on login", func() {
			before, err := env.Identities.GetByEmail(ctx, "ada@example.com")
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)
			_, _, err = env.Service.Login(ctx, "ada@example.com", "first-password-1")
			Expect(err).NotTo(HaveOccurred())

			after, err := env.Identities.GetByEmail(ctx, "ada@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(after.LastActivityAt.After(before.LastActivityAt)).To(BeTrue())
		})
	})

	Describe("Password reset", func() {
		BeforeEach(func() {
			_, _, err := env.Service.Register(ctx, registerParams("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("completes the request-reset-login round trip", func() {
			Expect(env.Service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			token := env.Mailer.LastToken()
			Expect(token).NotTo(BeEmpty())

			Expect(env.Service.ResetPassword(ctx, "ada@example.com", token, "second-password-2")).To(Succeed())

			_, _, err := env.Service.Login(ctx, "ada@example.com", "first-password-1")
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))

			_, _, err = env.Service.Login(ctx, "ada@example.com", "second-password-2")
			Expect(err).NotTo(HaveOccurred())
		})

		It("persists the hashed ticket, never the plaintext token", func() {
			Expect(env.Service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			token := env.Mailer.LastToken()

			stored, err := env.Identities.GetByEmail(ctx, "ada@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ResetTicket).NotTo(BeNil())
			Expect(stored.ResetTicket.TokenHash).NotTo(Equal(token))
			Expect(stored.ResetTicket.TokenHash).To(Equal(auth.HashResetToken(token)))
		})

		It("rejects a token after it has been consumed", func() {
			Expect(env.Service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			token := env.Mailer.LastToken()

			Expect(env.Service.ResetPassword(ctx, "ada@example.com", token, "second-password-2")).To(Succeed())

			err := env.Service.ResetPassword(ctx, "ada@example.com", token, "third-password-3")
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})

		It("rejects reusing the current password", func() {
			Expect(env.Service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			token := env.Mailer.LastToken()

			err := env.Service.ResetPassword(ctx, "ada@example.com", token, "first-password-1")
			Expect(err).To(MatchError(auth.ErrSamePassword))
		})

		It("supersedes an earlier ticket with a later request", func() {
			Expect(env.Service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			first := env.Mailer.LastToken()

			Expect(env.Service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			second := env.Mailer.LastToken()
			Expect(second).NotTo(Equal(first))

			err := env.Service.ResetPassword(ctx, "ada@example.com", first, "second-password-2")
			Expect(err).To(MatchError(auth.ErrInvalidToken))

			Expect(env.Service.ResetPassword(ctx, "ada@example.com", second, "second-password-2")).To(Succeed())
		})
	})

	Describe("Role promotion", func() {
		var identity *auth.Identity

		BeforeEach(func() {
			var err error
			identity, _, err = env.Service.Register(ctx, registerParams("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses promotion without the full document set", func() {
			_, err := env.Service.PromoteToElevatedRole(ctx, identity.ID)
			Expect(err).To(MatchError(auth.ErrIncompleteDocumentation))
		})

		It("toggles standard to elevated and back when documents are present", func() {
			now := time.Now()
			for _, name := range auth.RequiredDocuments() {
				identity.Documents = append(identity.Documents, auth.Document{
					Name:       name,
					Reference:  "s3://documents/" + name,
					UploadedAt: now,
				})
			}
			Expect(env.Identities.Update(ctx, identity)).To(Succeed())

			role, err := env.Service.PromoteToElevatedRole(ctx, identity.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(role).To(Equal(auth.RoleElevated))

			role, err = env.Service.PromoteToElevatedRole(ctx, identity.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(role).To(Equal(auth.RoleStandard))
		})
	})

	Describe("Listing", func() {
		It("returns only standard-role identities, without credential material", func() {
			_, _, err := env.Service.Register(ctx, registerParams("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = env.Service.Register(ctx, registerParams("grace@example.com"))
			Expect(err).NotTo(HaveOccurred())

			summaries, err := env.Service.ListStandardIdentities(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(2))
			for _, s := range summaries {
				Expect(s.Role).To(Equal(auth.RoleStandard))
			}
		})
	})

	Describe("Retention sweep", func() {
		It("purges identities idle beyond the window and keeps active ones", func() {
			stale, _, err := env.Service.Register(ctx, registerParams("stale@example.com"))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = env.Service.Register(ctx, registerParams("fresh@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = env.pool.Exec(ctx,
				"UPDATE identities SET last_activity_at = $1 WHERE id = $2",
				time.Now().Add(-48*time.Hour), stale.ID.String())
			Expect(err).NotTo(HaveOccurred())

			count, err := env.Service.PurgeInactive(ctx, 24*time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			_, err = env.Identities.GetByEmail(ctx, "stale@example.com")
			Expect(err).To(MatchError(auth.ErrNotFound))

			_, err = env.Identities.GetByEmail(ctx, "fresh@example.com")
			Expect(err).NotTo(HaveOccurred())
		})

		It("retains an identity active exactly at the cutoff instant", func() {
			boundary, _, err := env.Service.Register(ctx, registerParams("boundary@example.com"))
			Expect(err).NotTo(HaveOccurred())
			older, _, err := env.Service.Register(ctx, registerParams("older@example.com"))
			Expect(err).NotTo(HaveOccurred())

			// Microsecond precision survives the timestamptz round trip,
			// so the stored value compares equal to the cutoff.
			cutoff := time.Now().Add(-24 * time.Hour).Truncate(time.Microsecond)

			_, err = env.pool.Exec(ctx,
				"UPDATE identities SET last_activity_at = $1 WHERE id = $2",
				cutoff, boundary.ID.String())
			Expect(err).NotTo(HaveOccurred())
			_, err = env.pool.Exec(ctx,
				"UPDATE identities SET last_activity_at = $1 WHERE id = $2",
				cutoff.Add(-time.Microsecond), older.ID.String())
			Expect(err).NotTo(HaveOccurred())

			count, err := env.Identities.DeleteInactiveBefore(ctx, cutoff)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			_, err = env.Identities.GetByEmail(ctx, "boundary@example.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Identities.GetByEmail(ctx, "older@example.com")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("clears expired reset tickets and leaves live ones", func() {
			expired, _, err := env.Service.Register(ctx, registerParams("expired@example.com"))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = env.Service.Register(ctx, registerParams("live@example.com"))
			Expect(err).NotTo(HaveOccurred())

			expired.ResetTicket = &auth.ResetTicket{
				TokenHash: auth.HashResetToken("expired-token"),
				ExpiresAt: time.Now().Add(-time.Minute),
			}
			Expect(env.Identities.Update(ctx, expired)).To(Succeed())

			Expect(env.Service.RequestPasswordReset(ctx, "live@example.com")).To(Succeed())

			count, err := env.Service.ClearExpiredTickets(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			cleared, err := env.Identities.GetByEmail(ctx, "expired@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(cleared.ResetTicket).To(BeNil())

			kept, err := env.Identities.GetByEmail(ctx, "live@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(kept.ResetTicket).NotTo(BeNil())
		})
	})
})

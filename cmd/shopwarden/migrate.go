// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/shopwarden/shopwarden/internal/config"
	"github.com/shopwarden/shopwarden/internal/store"
)

// getDatabaseURL reads the database URL from the environment. Migration
// commands run before the full config is required, so they take the URL
// directly rather than loading and validating everything.
func getDatabaseURL() (string, error) {
	databaseURL := os.Getenv(config.EnvDatabaseURL)
	if databaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").
			Errorf("%s environment variable is required", config.EnvDatabaseURL)
	}
	return databaseURL, nil
}

// parseForceVersion parses the version argument of migrate force.
func parseForceVersion(input string) (int, error) {
	if strings.TrimSpace(input) == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	var version int
	if _, err := fmt.Sscanf(input, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").
			With("input", input).
			Errorf("version must be an integer")
	}
	return version, nil
}

// withMigrator runs fn with a Migrator built from the environment's
// database URL, closing it afterwards.
func withMigrator(fn func(m *store.Migrator) error) error {
	databaseURL, err := getDatabaseURL()
	if err != nil {
		return err
	}

	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }() //nolint:errcheck

	return fn(m)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, and inspect schema migrations against the PostgreSQL database.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Long:  `Roll back every migration, dropping the identities and carts tables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rollback completed")
				return nil
			})
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("Current version: %d (dirty: %v)\n", version, dirty)

				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				cmd.Printf("Pending: %v\n", pending)
				return nil
			})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Force the recorded migration version. Used to recover from a dirty
state after repairing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(func(m *store.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced version to %d\n", version)
				return nil
			})
		},
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the ShopWarden CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopwarden",
		Short: "ShopWarden - credential lifecycle service",
		Long: `ShopWarden manages the credential lifecycle for a storefront:
registration, login, password reset, role promotion, and the
inactivity sweep that retires dormant accounts.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewUsersCmd())
	cmd.AddCommand(NewPromoteCmd())

	return cmd
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewPromoteCmd creates the promote subcommand.
func NewPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <identity-id>",
		Short: "Toggle an identity between standard and elevated roles",
		Long: `Toggle an identity between the standard and elevated roles. The
identity must hold the full required document set; running the command
again reverses the change.`,
		Args: cobra.ExactArgs(1),
		RunE: runPromote,
	}
}

func runPromote(cmd *cobra.Command, args []string) error {
	id, err := ulid.Parse(args[0])
	if err != nil {
		return oops.Code("INVALID_IDENTITY_ID").
			With("input", args[0]).
			Wrap(err)
	}

	ctx := cmd.Context()

	svc, _, cleanup, buildErr := connectAndBuild(ctx, cmd.Flags())
	if buildErr != nil {
		return buildErr
	}
	defer cleanup()

	role, err := svc.PromoteToElevatedRole(ctx, id)
	if err != nil {
		return err
	}

	cmd.Printf("Identity %s now holds the %s role\n", id, role)
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/shopwarden/shopwarden/internal/auth"
)

// usersConfig holds configuration for the users command.
type usersConfig struct {
	filter string
}

// NewUsersCmd creates the users subcommand.
func NewUsersCmd() *cobra.Command {
	cfg := &usersConfig{}

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List standard-role identities",
		Long: `List every identity holding the standard role. Credential material
is never included in the listing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsers(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.filter, "filter", "", "glob pattern to match emails (e.g. '*@example.com')")

	return cmd
}

func runUsers(cmd *cobra.Command, cfg *usersConfig) error {
	ctx := cmd.Context()

	svc, _, cleanup, err := connectAndBuild(ctx, cmd.Flags())
	if err != nil {
		return err
	}
	defer cleanup()

	summaries, err := svc.ListStandardIdentities(ctx)
	if err != nil {
		return err
	}

	summaries, err = filterSummaries(summaries, cfg.filter)
	if err != nil {
		return err
	}

	cmd.Print(formatSummariesTable(summaries))
	return nil
}

// filterSummaries keeps summaries whose email matches the glob pattern.
// An empty pattern keeps everything.
func filterSummaries(summaries []auth.Summary, pattern string) ([]auth.Summary, error) {
	if pattern == "" {
		return summaries, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, oops.Code("INVALID_FILTER").
			With("pattern", pattern).
			Wrap(err)
	}

	filtered := make([]auth.Summary, 0, len(summaries))
	for _, s := range summaries {
		if g.Match(s.Email) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// formatSummariesTable renders summaries as a human-readable table.
func formatSummariesTable(summaries []auth.Summary) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "EMAIL\tNAME\tROLE")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\n", s.Email, s.FirstName, s.LastName, s.Role)
	}
	_ = w.Flush()

	return string(buf)
}

// byteWriter appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}

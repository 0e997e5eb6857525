package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vlatombe/jenkins-test-harness/pkg/harness"
)

// newCleanCmd creates the "jth clean" subcommand.
func newCleanCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove recorded session directories and journal rows",
		Long: `Removes every session directory recorded in the launch journal along
with its journal rows. Sessions belonging to running tests should not be
cleaned; this is for state left behind by crashed or interrupted runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := harness.ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			journal, err := harness.OpenJournal(paths.JournalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer journal.Close()

			n, err := cleanSessions(cmd.Context(), cmd.OutOrStdout(), journal, dryRun)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned %d session(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be removed without removing it")

	return cmd
}

// cleanSessions removes each recorded session dir and journal row,
// returning the number cleaned. Extracted for testability.
func cleanSessions(ctx context.Context, w io.Writer, journal *harness.Journal, dryRun bool) (int, error) {
	records, err := journal.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	cleaned := 0
	for _, r := range records {
		if dryRun {
			fmt.Fprintf(w, "would remove %s (%s)\n", r.Dir, r.Label)
			continue
		}
		if err := os.RemoveAll(r.Dir); err != nil {
			return cleaned, fmt.Errorf("remove %s: %w", r.Dir, err)
		}
		if err := journal.DeleteSession(r.ID); err != nil {
			return cleaned, err
		}
		cleaned++
	}
	return cleaned, nil
}

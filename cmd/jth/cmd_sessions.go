package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Vlatombe/jenkins-test-harness/pkg/harness"
)

// newSessionsCmd creates the "jth sessions" subcommand.
func newSessionsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded harness sessions",
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

			records, err := journal.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			return writeSessions(cmd.OutOrStdout(), records, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or yaml")

	return cmd
}

// writeSessions renders records in the requested format. Extracted for
// testability.
func writeSessions(w io.Writer, records []harness.SessionRecord, output string) error {
	switch output {
	case "yaml":
		data, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshal sessions: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tPORT\tLAUNCHES\tCREATED\tDIR")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", r.ID, r.Label, r.Port, r.Launches, r.CreatedAt, r.Dir)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

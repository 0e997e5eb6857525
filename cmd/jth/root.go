package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vlatombe/jenkins-test-harness/internal/version"
)

// newRootCmd creates the root jth command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "jth",
		Short:         "Out-of-process server test harness tools",
		Long:          "jth inspects and maintains the state left behind by harness sessions:\nthe launch journal and the per-session working directories.",
		Version:       fmt.Sprintf("jth %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newSessionsCmd(),
		newCleanCmd(),
		newWatchCmd(),
	)

	return cmd
}

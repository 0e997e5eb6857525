package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Vlatombe/jenkins-test-harness/pkg/harness"
)

// newWatchCmd creates the "jth watch" subcommand.
func newWatchCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "watch <session-dir>",
		Short: "Watch a session directory for protocol artifacts",
		Long: `Watches a session directory and prints an event whenever a protocol
artifact (` + harness.StepArtifact + `, ` + harness.ErrorArtifact + `) is written or removed.
Useful when diagnosing a launch that hangs or never reports an outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchSession(cmd, args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "stop watching after this duration (0 = forever)")

	return cmd
}

// watchSession streams artifact events for dir until the timeout elapses
// or the command context is cancelled.
func watchSession(cmd *cobra.Command, dir string, timeout time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", dir)

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if name != harness.StepArtifact && name != harness.ErrorArtifact {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", time.Now().Format(time.TimeOnly), event.Op, name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-deadline:
			return nil
		case <-cmd.Context().Done():
			return nil
		}
	}
}

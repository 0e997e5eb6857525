package harness

import "fmt"

// LaunchError reports a server process that could not be started at all:
// missing binary, exhausted OS resources, or a session used before
// Allocate. It enables typed discrimination via errors.As.
type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// AbnormalExitError reports a server process that exited non-zero. This
// is a coarse signal (crash, OOM, failed boot) and is deliberately
// distinct from a captured step failure, which always exits zero and
// travels via the error artifact.
type AbnormalExitError struct {
	Label    string
	ExitCode int
}

func (e *AbnormalExitError) Error() string {
	return fmt.Sprintf("session %s: server exited with code %d", e.Label, e.ExitCode)
}

// Package remote is the server-process side of the out-of-process test
// protocol. The embedding server application calls Run once it has
// finished booting; Run loads the transported step from the session
// directory, executes it against the live application handle, relays any
// failure through the error artifact, and terminates the process.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Vlatombe/jenkins-test-harness/pkg/harness"
	"github.com/Vlatombe/jenkins-test-harness/pkg/proxyerr"
	"github.com/Vlatombe/jenkins-test-harness/pkg/remoting"
)

// App is the harness's view of the embedding server application. The
// handle is whatever live object in-process test code would use; the
// harness only passes it through to the step.
type App interface {
	// Handle returns the live application object steps run against.
	Handle() any
	// Shutdown is the application's cleanup hook, invoked after the step
	// finished regardless of outcome.
	Shutdown(ctx context.Context) error
}

// InLaunch reports whether this process was started by a harness Session.
// Server binaries use it to decide between normal serving and a
// single-shot test launch.
func InLaunch() bool {
	return os.Getenv(harness.EnvRemote) == "1"
}

// Run executes the transported step against app and terminates the
// process; it never returns.
//
// The exit code is 0 whenever the protocol completed, even if the step
// failed: step failures travel through the error artifact alone. A
// non-zero exit therefore always means a failure outside the protocol's
// control.
func Run(app App) {
	os.Exit(run(app, remoting.Default, os.Stderr))
}

// run is Run minus the process exit. Kept separate for tests.
func run(app App, resolver remoting.Resolver, stderr io.Writer) int {
	desc, err := harness.DescriptorFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "jth remote: %v\n", err)
		return 3
	}

	v, err := remoting.Read(filepath.Join(desc.Home, harness.StepArtifact), resolver)
	if err != nil {
		fmt.Fprintf(stderr, "jth remote: %v\n", err)
		return 3
	}
	step, ok := v.(harness.Step)
	if !ok {
		fmt.Fprintf(stderr, "jth remote: artifact type %T is not a step\n", v)
		return 3
	}

	env := &harness.Env{
		App:    app.Handle(),
		Port:   desc.Port,
		Home:   desc.Home,
		Prefix: desc.Prefix,
		Label:  desc.Label,
	}
	release, err := pinEnv(env)
	if err != nil {
		fmt.Fprintf(stderr, "jth remote: %v\n", err)
		return 3
	}

	fmt.Fprintf(stderr, "Running step: %T\n", step)
	exit := 0
	if runErr := runStep(step, env); runErr != nil {
		errPath := filepath.Join(desc.Home, harness.ErrorArtifact)
		if werr := remoting.Write(errPath, proxyerr.Proxy(runErr), nil); werr != nil {
			// The failure channel itself failed; the only remaining
			// signal is an abnormal exit.
			fmt.Fprintf(stderr, "jth remote: %v\n", werr)
			exit = 3
		}
	}

	if err := app.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(stderr, "jth remote: shutdown: %v\n", err)
	}
	release()
	return exit
}

// runStep invokes the step, converting panics into errors and making sure
// every captured failure carries stack frames.
func runStep(step harness.Step, env *harness.Env) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = proxyerr.WithStack(fmt.Errorf("step panicked: %v", r))
		}
	}()
	return proxyerr.WithStack(step.Run(env))
}

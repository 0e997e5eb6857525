// Package harness runs a unit of test logic against a real server
// application booted in a separate OS process.
//
// A Session owns a stable working directory and TCP port for its whole
// life. Each Run serializes one Step to the session directory, launches
// the server binary pointed at that directory, and resolves the outcome
// from the exit code and the error artifact. The server side of the
// protocol lives in pkg/remote.
package harness

import (
	"fmt"
	"strings"

	"github.com/Vlatombe/jenkins-test-harness/pkg/remoting"
)

// Step is one unit of test logic sent to the server process.
//
// A Step must be transportable by value: its concrete type is registered
// under a kind name (see RegisterStep), its exported fields are gob
// encoded, and it must not reference live objects of the controller
// process. The friendliest idiom is a small struct holding only the data
// the step needs.
type Step interface {
	Run(env *Env) error
}

// RegisterStep makes a step kind transportable. Both the controller
// binary and the server binary must register the kind, which happens
// naturally when they link the same package. Call it from an init
// function or a TestMain.
func RegisterStep(kind string, factory func() Step) {
	remoting.Register(kind, func() any { return factory() })
}

// Env is the session-scoped handle a Step runs against inside the server
// process. It mirrors the in-process test support surface so the same
// step logic is reusable in-process and out-of-process.
type Env struct {
	// App is the live application handle supplied by the embedding host.
	App any
	// Port is the TCP port the application is serving on.
	Port int
	// Home is the application's persistent-state root (the session dir).
	Home string
	// Prefix is the HTTP context path the application is mounted under.
	Prefix string
	// Label identifies the session for log output.
	Label string
}

// URL returns the base URL of the application under test, including the
// context path, with a trailing slash.
func (e *Env) URL() string {
	prefix := strings.Trim(e.Prefix, "/")
	if prefix != "" {
		prefix = "/" + prefix
	}
	return fmt.Sprintf("http://127.0.0.1:%d%s/", e.Port, prefix)
}

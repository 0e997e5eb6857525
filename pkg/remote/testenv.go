package remote

import (
	"errors"
	"sync"

	"github.com/Vlatombe/jenkins-test-harness/pkg/harness"
)

// A launched process carries exactly one live test environment. It is
// pinned for the duration of the step and released before exit, so
// application-side helpers can look it up without the harness threading
// it through every call.
var (
	envMu  sync.Mutex
	pinned *harness.Env
)

// CurrentEnv returns the pinned environment, or nil outside a launch.
func CurrentEnv() *harness.Env {
	envMu.Lock()
	defer envMu.Unlock()
	return pinned
}

// pinEnv installs env as the process-wide environment for the launch's
// duration. The returned release func must run on every exit path.
func pinEnv(env *harness.Env) (release func(), err error) {
	envMu.Lock()
	defer envMu.Unlock()
	if pinned != nil {
		return nil, errors.New("test environment already pinned")
	}
	pinned = env
	return func() {
		envMu.Lock()
		pinned = nil
		envMu.Unlock()
	}, nil
}

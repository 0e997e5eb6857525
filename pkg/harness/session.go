package harness

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/Vlatombe/jenkins-test-harness/pkg/proxyerr"
	"github.com/Vlatombe/jenkins-test-harness/pkg/remoting"
)

// Options configures a Session. The zero value works: binary defaults to
// the current executable (re-exec pattern), everything else comes from
// harness.toml or the built-in defaults, and output goes to the
// controller's own console streams.
type Options struct {
	// Label names the session in log output and the journal. Defaults to
	// a generated session-<id> label.
	Label string
	// Binary overrides the server executable to launch.
	Binary string
	// Prefix overrides the HTTP context path.
	Prefix string
	// ListenAddress overrides the address the server binds.
	ListenAddress string
	// Ports overrides the port selection range.
	Ports PortRange
	// Stdout and Stderr receive the relayed server output. Defaults:
	// os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Session owns one test session: a stable working directory and TCP port
// reused by every launch until Dispose. A session runs launches strictly
// sequentially; the directory and port belong to the one active server
// process.
type Session struct {
	opts    Options
	paths   *Paths
	id      string
	dir     string
	port    int
	journal *Journal
}

// NewSession resolves paths and config and applies option defaults. It
// touches no state on disk; call Allocate before Run.
func NewSession(opts Options) (*Session, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(paths.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Binary == "" {
		opts.Binary = cfg.Server.Binary
	}
	if opts.Binary == "" {
		exe, err := os.Executable()
		if err != nil {
			exe = os.Args[0]
		}
		opts.Binary = exe
	}
	if opts.Prefix == "" {
		opts.Prefix = cfg.Server.Prefix
	}
	if opts.ListenAddress == "" {
		opts.ListenAddress = cfg.Server.ListenAddress
	}
	if opts.Ports == (PortRange{}) {
		opts.Ports = cfg.Ports
	}
	if err := opts.Ports.validate(); err != nil {
		return nil, err
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Session{opts: opts, paths: paths}, nil
}

// Allocate creates the session directory and chooses the port. Both stay
// fixed for the session's life; every subsequent Run reuses them.
func (s *Session) Allocate() error {
	if s.dir != "" {
		return fmt.Errorf("session %s already allocated", s.Label())
	}
	if err := os.MkdirAll(s.paths.SessionsDir, 0o700); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	id := uuid.New().String()
	dir := filepath.Join(s.paths.SessionsDir, id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	s.id = id
	s.dir = dir
	s.port = s.opts.Ports.pick()
	if s.opts.Label == "" {
		s.opts.Label = "session-" + id[:8]
	}

	// Bookkeeping only; a broken journal must not fail the session.
	if j, err := OpenJournal(s.paths.JournalPath); err == nil {
		s.journal = j
		if err := j.RecordSession(s.id, s.opts.Label, s.dir, s.port); err != nil {
			fmt.Fprintf(s.opts.Stderr, "jth: journal: %v\n", err)
		}
	} else {
		fmt.Fprintf(s.opts.Stderr, "jth: journal: %v\n", err)
	}

	fmt.Fprintf(s.opts.Stdout, "=== Starting %s\n", s.opts.Label)
	return nil
}

// Port returns the session's port. Valid after Allocate.
func (s *Session) Port() int { return s.port }

// Dir returns the session directory. Valid after Allocate.
func (s *Session) Dir() string { return s.dir }

// Label returns the session label.
func (s *Session) Label() string {
	if s.opts.Label == "" {
		return "session"
	}
	return s.opts.Label
}

// URL returns the base URL the launched server serves under.
func (s *Session) URL() string {
	env := Env{Port: s.port, Prefix: s.opts.Prefix}
	return env.URL()
}

// Run executes one launch: serialize step, start the server process
// pointed at the session directory, relay its output, wait for it to
// exit, and resolve the outcome. Exactly one of three outcomes holds:
// a nil return, a captured step failure (*proxyerr.ProxyError), or an
// error describing a launch/serialization problem or an abnormal exit.
func (s *Session) Run(step Step) error {
	if s.dir == "" {
		return &LaunchError{Binary: s.opts.Binary, Err: errors.New("session not allocated")}
	}

	// A leftover artifact from an earlier launch would corrupt outcome
	// resolution, so the channel starts empty.
	for _, name := range []string{StepArtifact, ErrorArtifact} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &LaunchError{Binary: s.opts.Binary, Err: err}
		}
	}

	if err := remoting.Write(filepath.Join(s.dir, StepArtifact), step, nil); err != nil {
		return err
	}

	desc := s.descriptor()
	cmd := exec.Command(desc.Binary, desc.Args()...)
	cmd.Env = append(os.Environ(), desc.Environ()...)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return &LaunchError{Binary: desc.Binary, Err: err}
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return &LaunchError{Binary: desc.Binary, Err: err}
	}

	fmt.Fprintf(s.opts.Stdout, "Launching: %s %s\n", desc.Binary, strings.Join(desc.Args(), " "))
	started := time.Now()
	if err := cmd.Start(); err != nil {
		s.recordLaunch(started, -1, OutcomeLaunchError)
		return &LaunchError{Binary: desc.Binary, Err: err}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go relay(&wg, newTagWriter(s.opts.Stdout, s.opts.Label, isTTY(s.opts.Stdout)), outPipe)
	go relay(&wg, newTagWriter(s.opts.Stderr, s.opts.Label, isTTY(s.opts.Stderr)), errPipe)
	wg.Wait()

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		var ee *exec.ExitError
		if !errors.As(waitErr, &ee) {
			s.recordLaunch(started, -1, OutcomeLaunchError)
			return &LaunchError{Binary: desc.Binary, Err: waitErr}
		}
		exitCode = ee.ExitCode()
	}

	if exitCode != 0 {
		s.recordLaunch(started, exitCode, OutcomeAbnormalExit)
		return &AbnormalExitError{Label: s.opts.Label, ExitCode: exitCode}
	}

	errPath := filepath.Join(s.dir, ErrorArtifact)
	if _, err := os.Stat(errPath); err == nil {
		v, err := remoting.Read(errPath, nil)
		if err != nil {
			return err
		}
		pe, ok := v.(*proxyerr.ProxyError)
		if !ok {
			return &remoting.SerializationError{Op: "read", Path: errPath, Err: fmt.Errorf("unexpected artifact type %T", v)}
		}
		s.recordLaunch(started, 0, OutcomeStepFailure)
		return pe
	}

	s.recordLaunch(started, 0, OutcomeOK)
	return nil
}

// Dispose releases the session directory and the journal handle. It is
// safe to call after a failed Allocate or Run and must run on every exit
// path of the caller.
func (s *Session) Dispose() error {
	var errs []error
	if s.dir != "" {
		if err := os.RemoveAll(s.dir); err != nil {
			errs = append(errs, fmt.Errorf("remove session dir: %w", err))
		}
		s.dir = ""
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
		s.journal = nil
	}
	return errors.Join(errs...)
}

func (s *Session) descriptor() *LaunchDescriptor {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return &LaunchDescriptor{
		Binary:        s.opts.Binary,
		Executable:    exe,
		Home:          s.dir,
		Port:          s.port,
		Prefix:        s.opts.Prefix,
		ListenAddress: s.opts.ListenAddress,
		Label:         s.opts.Label,
	}
}

func (s *Session) recordLaunch(started time.Time, exitCode int, outcome string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordLaunch(s.id, started, time.Now(), exitCode, outcome); err != nil {
		fmt.Fprintf(s.opts.Stderr, "jth: journal: %v\n", err)
	}
}

// isTTY reports whether w is an interactive terminal, which switches the
// relay tag to colored output.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

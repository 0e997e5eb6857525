// Package proxyerr reconstructs failures that must cross a process
// boundary. A ProxyError mirrors the diagnostic content of an arbitrary
// error — message, stack frames, cause chain, suppressed failures — using
// only transportable primitives, so the receiving process can present the
// failure without the original error type linked into its binary.
//
// The mirror is lossy on type identity (every node becomes a ProxyError)
// and lossless on diagnostic content.
package proxyerr

import (
	"errors"
	"runtime"

	"github.com/Vlatombe/jenkins-test-harness/pkg/remoting"
)

// Frame is one captured stack location.
type Frame struct {
	Function string
	File     string
	Line     int
}

// StackTracer is implemented by errors that carry a captured stack.
type StackTracer interface {
	StackTrace() []Frame
}

// suppressor is implemented by errors that accumulated secondary failures
// (for example cleanup errors that should not mask the primary one).
type suppressor interface {
	Suppressed() []error
}

// ProxyError is the reconstructed form of a failure. Its Error rendering
// equals the captured message, so presenting it is indistinguishable from
// presenting the original's summary line.
type ProxyError struct {
	Message    string
	Frames     []Frame
	Cause      *ProxyError
	Suppressed []*ProxyError
}

func (e *ProxyError) Error() string { return e.Message }

// Unwrap exposes the proxied cause chain to errors.Is and errors.As.
func (e *ProxyError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Proxy builds the ProxyError mirror of err, recursively proxying its
// cause chain and suppressed failures. Proxy(nil) returns nil, and an
// error that already is a ProxyError is returned unchanged.
func Proxy(err error) *ProxyError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*ProxyError); ok {
		return pe
	}
	p := &ProxyError{Message: err.Error()}
	if st, ok := err.(StackTracer); ok {
		p.Frames = append([]Frame(nil), st.StackTrace()...)
	}
	if cause := errors.Unwrap(err); cause != nil {
		p.Cause = Proxy(cause)
	}
	if sup, ok := err.(suppressor); ok {
		for _, s := range sup.Suppressed() {
			p.Suppressed = append(p.Suppressed, Proxy(s))
		}
	}
	return p
}

// stackError decorates an error with the stack captured at wrap time. The
// decoration is transparent to cause-chain walking: Unwrap skips straight
// to the wrapped error's own cause, so wrapping does not deepen the chain.
type stackError struct {
	err    error
	frames []Frame
}

func (e *stackError) Error() string       { return e.err.Error() }
func (e *stackError) Unwrap() error       { return errors.Unwrap(e.err) }
func (e *stackError) StackTrace() []Frame { return e.frames }

// WithStack attaches the caller's stack to err so a later Proxy carries
// frames. Errors that already expose a stack are returned unchanged.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(StackTracer); ok {
		return err
	}
	return &stackError{err: err, frames: callers(1)}
}

// suppressedError attaches secondary failures to a primary error without
// altering its message or cause chain.
type suppressedError struct {
	err   error
	extra []error
}

func (e *suppressedError) Error() string       { return e.err.Error() }
func (e *suppressedError) Unwrap() error       { return errors.Unwrap(e.err) }
func (e *suppressedError) Suppressed() []error { return e.extra }

func (e *suppressedError) StackTrace() []Frame {
	if st, ok := e.err.(StackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// Suppress records secondary failures alongside primary, preserving their
// order. With no secondaries, primary is returned unchanged.
func Suppress(primary error, secondary ...error) error {
	if primary == nil || len(secondary) == 0 {
		return primary
	}
	if se, ok := primary.(*suppressedError); ok {
		return &suppressedError{err: se.err, extra: append(append([]error(nil), se.extra...), secondary...)}
	}
	return &suppressedError{err: primary, extra: secondary}
}

func callers(skip int) []Frame {
	pc := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pc)
	frames := runtime.CallersFrames(pc[:n])
	var out []Frame
	for {
		f, more := frames.Next()
		out = append(out, Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return out
}

// The proxy shape must be readable by the controller with no extra
// resolver, so it registers under a fixed kind in the default registry.
func init() {
	remoting.Register("proxyerr.ProxyError", func() any { return new(ProxyError) })
}

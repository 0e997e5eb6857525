package harness

import (
	"bytes"
	"io"
	"sync"
)

// tagWriter prefixes every output line with the session label so
// interleaved controller and server output stays attributable. It is safe
// for concurrent use by the stdout and stderr relays when both target the
// same underlying writer.
type tagWriter struct {
	mu      sync.Mutex
	w       io.Writer
	tag     []byte
	midline bool
}

func newTagWriter(w io.Writer, label string, color bool) *tagWriter {
	tag := "[" + label + "] "
	if color {
		tag = "\x1b[36m[" + label + "]\x1b[0m "
	}
	return &tagWriter{w: w, tag: []byte(tag)}
}

// Write emits p with the tag inserted at the start of every line. It
// always reports the full length as written: a failing console must not
// disturb the relay goroutines, let alone the protocol.
func (t *tagWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rest := p
	for len(rest) > 0 {
		if !t.midline {
			_, _ = t.w.Write(t.tag)
			t.midline = true
		}
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			_, _ = t.w.Write(rest)
			break
		}
		_, _ = t.w.Write(rest[:i+1])
		t.midline = false
		rest = rest[i+1:]
	}
	return len(p), nil
}

// relay copies src to dst until EOF on its own goroutine. Copy errors go
// nowhere: stream relaying is observability only and never gates the
// protocol outcome.
func relay(wg *sync.WaitGroup, dst io.Writer, src io.Reader) {
	defer wg.Done()
	_, _ = io.Copy(dst, src)
}

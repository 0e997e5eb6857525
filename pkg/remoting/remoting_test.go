package remoting_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Vlatombe/jenkins-test-harness/pkg/remoting"
)

type note struct {
	Text  string
	Count int
}

// twin has the same structural shape as note but a distinct identity,
// standing in for "the same logical type" in a different registration
// scope.
type twin struct {
	Text  string
	Count int
}

func init() {
	remoting.Register("remoting.note", func() any { return new(note) })
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "note.ser")
	if err := remoting.Write(path, &note{Text: "hello", Count: 3}, nil); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	v, err := remoting.Read(path, nil)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	got, ok := v.(*note)
	if !ok {
		t.Fatalf("Read() returned %T, want *note", v)
	}
	if got.Text != "hello" || got.Count != 3 {
		t.Errorf("Read() = %+v, want {hello 3}", got)
	}
}

func TestWriteUnregisteredKind(t *testing.T) {
	t.Parallel()

	type stranger struct{ X int }
	path := filepath.Join(t.TempDir(), "stranger.ser")

	err := remoting.Write(path, &stranger{X: 1}, nil)
	var serr *remoting.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("Write() error = %v, want *SerializationError", err)
	}
	if serr.Op != "write" {
		t.Errorf("Op = %q, want %q", serr.Op, "write")
	}
}

func TestReadResolvesThroughResolverFirst(t *testing.T) {
	t.Parallel()

	// The writer's scope knows the kind as note; the reader's scope
	// resolves the same kind name to its own structurally identical type.
	writer := remoting.NewRegistry()
	writer.Register("remoting.dual", func() any { return new(note) })
	reader := remoting.NewRegistry()
	reader.Register("remoting.dual", func() any { return new(twin) })

	path := filepath.Join(t.TempDir(), "dual.ser")
	if err := remoting.Write(path, &note{Text: "crossed", Count: 7}, writer); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	v, err := remoting.Read(path, reader)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	got, ok := v.(*twin)
	if !ok {
		t.Fatalf("Read() returned %T, want *twin (resolver must win over Default)", v)
	}
	if got.Text != "crossed" || got.Count != 7 {
		t.Errorf("Read() = %+v, want {crossed 7}", got)
	}
}

func TestReadFallsBackToDefault(t *testing.T) {
	t.Parallel()

	empty := remoting.NewRegistry()
	path := filepath.Join(t.TempDir(), "note.ser")
	if err := remoting.Write(path, &note{Text: "fallback"}, nil); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	v, err := remoting.Read(path, empty)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got, ok := v.(*note); !ok || got.Text != "fallback" {
		t.Errorf("Read() = %T %+v, want *note {fallback}", v, v)
	}
}

func TestReadUnknownKind(t *testing.T) {
	t.Parallel()

	writer := remoting.NewRegistry()
	writer.Register("remoting.orphan", func() any { return new(note) })

	path := filepath.Join(t.TempDir(), "orphan.ser")
	if err := remoting.Write(path, &note{Text: "x"}, writer); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	_, err := remoting.Read(path, nil)
	var serr *remoting.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("Read() error = %v, want *SerializationError", err)
	}
	if serr.Op != "read" {
		t.Errorf("Op = %q, want %q", serr.Op, "read")
	}
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := remoting.Read(filepath.Join(t.TempDir(), "absent.ser"), nil)
	var serr *remoting.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("Read() error = %v, want *SerializationError", err)
	}
}

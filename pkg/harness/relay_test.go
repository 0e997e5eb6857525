package harness

import (
	"strings"
	"sync"
	"testing"
)

func TestTagWriterPrefixesLines(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	w := newTagWriter(&buf, "sess", false)

	for _, chunk := range []string{"first", " line\nsecond line\n", "third"} {
		n, err := w.Write([]byte(chunk))
		if err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		if n != len(chunk) {
			t.Fatalf("Write() = %d, want %d", n, len(chunk))
		}
	}

	want := "[sess] first line\n[sess] second line\n[sess] third"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestTagWriterColored(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	w := newTagWriter(&buf, "sess", true)
	if _, err := w.Write([]byte("line\n")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "\x1b[36m[sess]\x1b[0m line\n") {
		t.Errorf("output = %q, want colored tag", got)
	}
}

func TestRelayCopiesUntilEOF(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	w := newTagWriter(&buf, "x", false)

	var wg sync.WaitGroup
	wg.Add(1)
	go relay(&wg, w, strings.NewReader("a\nb\n"))
	wg.Wait()

	want := "[x] a\n[x] b\n"
	if got := buf.String(); got != want {
		t.Errorf("relayed output = %q, want %q", got, want)
	}
}

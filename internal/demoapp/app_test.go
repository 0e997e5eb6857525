package demoapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// startApp boots an app on an ephemeral port and registers shutdown.
func startApp(t *testing.T, prefix string) *App {
	t.Helper()
	app := New(t.TempDir())
	if err := app.Start("127.0.0.1:0", prefix); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() {
		if err := app.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error: %v", err)
		}
	})
	return app
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	app := startApp(t, "/")
	status, body := get(t, fmt.Sprintf("http://%s/health", app.Addr()))
	if status != http.StatusOK || body != "ok\n" {
		t.Errorf("GET /health = %d %q, want 200 %q", status, body, "ok\n")
	}
}

func TestHealthUnderPrefix(t *testing.T) {
	t.Parallel()

	app := startApp(t, "/app")
	status, _ := get(t, fmt.Sprintf("http://%s/app/health", app.Addr()))
	if status != http.StatusOK {
		t.Errorf("GET /app/health = %d, want 200", status)
	}
	status, _ = get(t, fmt.Sprintf("http://%s/health", app.Addr()))
	if status == http.StatusOK {
		t.Error("GET /health outside the prefix should not be served")
	}
}

func TestStateRoundTripPersistsToDisk(t *testing.T) {
	t.Parallel()

	app := startApp(t, "/")
	url := fmt.Sprintf("http://%s/state/greeting", app.Addr())

	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT state = %d, want 204", resp.StatusCode)
	}

	status, body := get(t, url)
	if status != http.StatusOK || body != "hello" {
		t.Errorf("GET state = %d %q, want 200 %q", status, body, "hello")
	}

	// State must live as a flat file under the home dir, where the next
	// launch of the application will find it.
	data, err := os.ReadFile(filepath.Join(app.Home(), "greeting"))
	if err != nil {
		t.Fatalf("state file missing: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("state file = %q, want %q", data, "hello")
	}
}

func TestStateUnknownName(t *testing.T) {
	t.Parallel()

	app := startApp(t, "/")
	status, _ := get(t, fmt.Sprintf("http://%s/state/absent", app.Addr()))
	if status != http.StatusNotFound {
		t.Errorf("GET absent state = %d, want 404", status)
	}
}

func TestStateRejectsEscapingNames(t *testing.T) {
	t.Parallel()

	app := New(t.TempDir())
	for _, name := range []string{"", "a/b", `a\b`, ".."} {
		if err := app.WriteState(name, "x"); err == nil {
			t.Errorf("WriteState(%q) succeeded, want error", name)
		}
	}
}

func TestMetricsExposed(t *testing.T) {
	t.Parallel()

	app := startApp(t, "/")
	// Generate one counted request first.
	if status, _ := get(t, fmt.Sprintf("http://%s/health", app.Addr())); status != http.StatusOK {
		t.Fatal("health request failed")
	}

	status, body := get(t, fmt.Sprintf("http://%s/metrics", app.Addr()))
	if status != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", status)
	}
	if !strings.Contains(body, "demoapp_requests_total") {
		t.Error("metrics output missing demoapp_requests_total")
	}
}

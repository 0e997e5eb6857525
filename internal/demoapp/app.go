// Package demoapp is a minimal bootable server application used to
// exercise the harness end to end. It persists state as flat files under
// the harness-provided home directory and exposes the HTTP surface a real
// application would: health, state access, metrics.
package demoapp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// App is one bootable application instance rooted at a home directory.
type App struct {
	home     string
	srv      *http.Server
	ln       net.Listener
	registry *prometheus.Registry
	requests prometheus.Counter
}

// New builds an application rooted at home. The instance serves nothing
// until Start.
func New(home string) *App {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demoapp_requests_total",
		Help: "HTTP requests served.",
	})
	registry.MustRegister(requests)
	return &App{home: home, registry: registry, requests: requests}
}

// Home returns the application's persistent-state root.
func (a *App) Home() string { return a.home }

// Addr returns the bound listen address. Valid after Start.
func (a *App) Addr() string {
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}

// Start binds addr, mounts the router under prefix, and serves in the
// background. Boot is complete when Start returns.
func (a *App) Start(addr, prefix string) error {
	if err := os.MkdirAll(a.home, 0o700); err != nil {
		return fmt.Errorf("create state root: %w", err)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	a.ln = ln
	a.srv = &http.Server{Handler: a.handler(prefix)}
	go func() {
		if err := a.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "demoapp: serve: %v\n", err)
		}
	}()
	return nil
}

// Handle returns the live application object test steps run against.
func (a *App) Handle() any { return a }

// Shutdown drains the HTTP server. Safe to call before Start.
func (a *App) Shutdown(ctx context.Context) error {
	if a.srv == nil {
		return nil
	}
	return a.srv.Shutdown(ctx)
}

// WriteState persists one named state value under the home directory.
func (a *App) WriteState(name, value string) error {
	path, err := a.statePath(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write state %s: %w", name, err)
	}
	return nil
}

// ReadState returns one named state value.
func (a *App) ReadState(name string) (string, error) {
	path, err := a.statePath(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read state %s: %w", name, err)
	}
	return string(data), nil
}

// statePath rejects names that would escape the state root.
func (a *App) statePath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid state name %q", name)
	}
	return filepath.Join(a.home, name), nil
}

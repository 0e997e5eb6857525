package demoapp

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handler builds the HTTP surface, mounted under prefix when one is set.
func (a *App) handler(prefix string) http.Handler {
	r := chi.NewRouter()
	r.Use(a.countRequests)
	r.Get("/health", a.handleHealth)
	r.Get("/state/{name}", a.handleGetState)
	r.Put("/state/{name}", a.handlePutState)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	if prefix == "" || prefix == "/" {
		return r
	}
	outer := chi.NewRouter()
	outer.Mount(prefix, r)
	return outer
}

func (a *App) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		a.requests.Inc()
		next.ServeHTTP(w, req)
	})
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (a *App) handleGetState(w http.ResponseWriter, req *http.Request) {
	value, err := a.ReadState(chi.URLParam(req, "name"))
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, _ = io.WriteString(w, value)
}

func (a *App) handlePutState(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.WriteState(chi.URLParam(req, "name"), string(body)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

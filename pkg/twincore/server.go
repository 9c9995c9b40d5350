// Package twincore provides the base HTTP server, middleware chain and
// response helpers for twins: in-process fakes of remote APIs used to run
// suites offline.
package twincore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phuslu/log"
)

// Config holds the settings common to every twin.
type Config struct {
	Name    string // twin name for logging
	Port    int    // 0 picks a free port
	Verbose bool

	// Logger overrides the default JSON logger on stdout.
	Logger *log.Logger
}

// Twin is the base server for a twin. It wraps a chi router with the common
// middleware and manages the listener lifecycle.
type Twin struct {
	Config *Config
	Router *chi.Mux
	Logger *log.Logger
	mw     *Middleware
}

// New creates a new Twin with the given config.
func New(cfg *Config) *Twin {
	logger := cfg.Logger
	if logger == nil {
		level := log.InfoLevel
		if cfg.Verbose {
			level = log.DebugLevel
		}
		logger = &log.Logger{
			Level:  level,
			Writer: &log.IOWriter{Writer: os.Stdout},
		}
	}

	r := chi.NewRouter()
	mw := NewMiddleware(cfg, logger)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(mw.RequestLog)

	return &Twin{
		Config: cfg,
		Router: r,
		Logger: logger,
		mw:     mw,
	}
}

// Middleware returns the middleware instance (request log, fault registry).
func (t *Twin) Middleware() *Middleware {
	return t.mw
}

// ServeHTTP implements http.Handler so a Twin can back an httptest.Server.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Router.ServeHTTP(w, r)
}

// Listen binds the configured port. Port 0 picks a free one; read the
// result from the returned listener.
func (t *Twin) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", t.Config.Port))
	if err != nil {
		return nil, fmt.Errorf("listening on port %d: %w", t.Config.Port, err)
	}
	return ln, nil
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (t *Twin) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      t.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		t.Logger.Info().Str("name", t.Config.Name).Str("addr", ln.Addr().String()).Msg("starting twin")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serving %s: %w", t.Config.Name, err)
		}
		return nil
	case <-ctx.Done():
	}

	t.Logger.Info().Str("name", t.Config.Name).Msg("shutting down twin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Message writes the {"msg": ...} envelope the Story Spoiler API uses for
// both confirmations and errors.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"msg": msg})
}

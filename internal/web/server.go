// Package web serves the single page front-end and its websocket and JSON
// endpoints. Every websocket connection, and every JSON request, gets a
// controller of its own. Conversations survive reconnects through the session
// store, keyed by a cookie.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/metrics"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/charadex/internal/session"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

const (
	RateLimitAlert = "Too many requests, please slow down."
	maxBodyBytes   = 64 * 1024
)

type Options struct {
	// Model is shown on the page.
	Model string
	// RatePerSecond and Burst configure the token bucket of each client. A
	// non-positive rate disables limiting.
	RatePerSecond float64
	Burst         int
	Metrics       *metrics.Prom
	Store         session.Store
}

type Server struct {
	source  models.Source
	conf    controller.Config
	opts    Options
	limiter *clientLimiter
	store   session.Store
	metrics *metrics.Prom
	mux     *http.ServeMux
	debug   bool

	// closing is closed when shutdown starts. Websockets are hijacked and
	// not drained by http.Server.Shutdown, so they watch it instead.
	closing   chan struct{}
	closeOnce sync.Once
}

func New(source models.Source, conf controller.Config, opts Options) (*Server, error) {
	if opts.Metrics == nil {
		m, err := metrics.NewProm("charadex", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		opts.Metrics = m
	}
	if opts.Store == nil {
		opts.Store = session.NewMemory(session.DefaultTTL)
	}
	conf.Metrics = opts.Metrics
	s := &Server{
		source:  source,
		conf:    conf,
		opts:    opts,
		limiter: newClientLimiter(opts.RatePerSecond, opts.Burst),
		store:   opts.Store,
		metrics: opts.Metrics,
		mux:     http.NewServeMux(),
		debug:   misc.Truthy(os.Getenv("DEBUG")),
		closing: make(chan struct{}),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("DELETE /api/history", s.handleResetHistory)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// Requests outlive ctx so that Shutdown can drain them
		BaseContext:       func(_ net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	srv.RegisterOnShutdown(func() {
		s.closeOnce.Do(func() { close(s.closing) })
	})
	errCh := make(chan error, 1)
	go func() {
		ancli.Okf("serving on: http://%v\n", displayAddr(addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports if the generation capability is available.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.source.Capability(); !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// sessionConfig returns the controller config of one client session, wired to
// persist completed turns.
func (s *Server) sessionConfig(ctx context.Context, id string) controller.Config {
	conf := s.conf
	conf.OnTurn = func(turn []models.Message) {
		if err := s.store.Append(ctx, id, turn...); err != nil {
			ancli.PrintWarn(fmt.Sprintf("failed to store turn of session '%v': %v\n", id, err))
		}
	}
	return conf
}

func (s *Server) loadHistory(ctx context.Context, id string) []models.Message {
	if !s.conf.Memory {
		return nil
	}
	history, err := s.store.Load(ctx, id)
	if err != nil {
		ancli.PrintWarn(fmt.Sprintf("failed to load session '%v': %v\n", id, err))
		return nil
	}
	return history
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ancli.PrintWarn(fmt.Sprintf("failed to write response: %v\n", err))
	}
}

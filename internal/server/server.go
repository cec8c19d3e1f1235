// Package server exposes parsing, import and record lookup over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/record"
	"github.com/salmonumbrella/braindump/internal/store"
)

// DefaultAddr is the listen address used by `braindump serve`.
const DefaultAddr = "127.0.0.1:8080"

const shutdownTimeout = 5 * time.Second

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// Server holds the HTTP routes and their collaborators.
type Server struct {
	store    store.Store
	enhancer enhance.Enhancer
	defaults record.Defaults
	logger   *zap.Logger
	router   *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithEnhancer enables /api/enhance and enhanced imports.
func WithEnhancer(e enhance.Enhancer) Option {
	return func(s *Server) {
		s.enhancer = e
	}
}

// WithDefaults sets the defaults used for imported records.
func WithDefaults(d record.Defaults) Option {
	return func(s *Server) {
		s.defaults = d.Normalize()
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Server over st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:    st,
		defaults: record.DefaultDefaults(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestLogger)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/enhance", s.handleEnhance).Methods(http.MethodPost)
	api.HandleFunc("/outline/parse", s.handleParse).Methods(http.MethodPost)
	api.HandleFunc("/outline/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/records", s.handleListRecords).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", s.handleGetRecord).Methods(http.MethodGet)
	return router
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Imports with enhancement make one model call per line.
		WriteTimeout: 10 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", zap.String("addr", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return false
	}
	return true
}

// Package httpapi serves the local read-only query endpoint: the current
// window snapshot and the submission status.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

// StatusFunc reports the current submission status.
type StatusFunc func() submit.Status

// Config configures a Server.
type Config struct {
	// Address is the TCP listen address, e.g. "127.0.0.1:5000". Required.
	Address  string
	Snapshot window.Snapshotter
	Status   StatusFunc
	// ShutdownTimeout bounds graceful shutdown; defaults to 5 seconds.
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server exposes GET /windows and GET /status.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	listener net.Listener
}

// NewServer validates cfg and returns an unbound server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Address == "" {
		return nil, errors.New("httpapi: address is required")
	}
	if cfg.Snapshot == nil {
		return nil, errors.New("httpapi: snapshot source is required")
	}
	if cfg.Status == nil {
		cfg.Status = func() submit.Status { return submit.Status{} }
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	return &Server{cfg: cfg, logger: logging.OrDiscard(cfg.Logger)}, nil
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /windows", s.handleWindows)
	mux.HandleFunc("GET /status", s.handleStatus)
	return mux
}

// Listen binds the listener so address errors surface before Serve.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Address, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully. Listen is called first if it has not been.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server listening", "address", s.listener.Addr().String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	snapshot := s.cfg.Snapshot.Enumerate()
	if snapshot == nil {
		snapshot = []window.WindowInfo{}
	}
	s.writeJSON(w, snapshot)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.cfg.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(data, '\n'))
}

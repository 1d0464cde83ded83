package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Server is a minimal liveness endpoint so hosting keep-alive pings have
// something to hit. It reports process liveness only; it knows nothing
// about Discord connectivity.
type Server struct {
	srv *http.Server
}

// New creates a liveness server on addr.
func New(addr string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("Health endpoint listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health endpoint failed", "error", err)
		}
	}()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		slog.Error("Health endpoint shutdown failed", "error", err)
	}
}

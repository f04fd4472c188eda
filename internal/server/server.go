// Package server implements the HTTP resolver service: it serves
// effective experiment configs and validation reports to training
// workers.
package server

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server wraps http.Server with detconf timeouts.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer creates a Server. Responses are small JSON/YAML documents,
// so timeouts are short. With enableH2C, cleartext HTTP/2 is accepted
// for workers multiplexing many config fetches over one connection.
func NewServer(addr string, handler http.Handler, enableH2C bool) *Server {
	finalHandler := handler
	if enableH2C {
		h2s := &http2.Server{}
		finalHandler = h2c.NewHandler(handler, h2s)
	}

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      finalHandler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe starts the server (blocks).
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Package server exposes the layout API, the websocket endpoint surfaces
// connect to and the web client itself.
package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/soar/touchremote/backend/internal/layout"
)

type Options struct {
	Addr     string
	Layouts  Layouts
	Defaults layout.Defaults
	// Socket serves /ws.
	Socket   http.Handler
	Frontend fs.FS
	Minify   bool
	Logger   *slog.Logger
}

type Server struct {
	addr       string
	handler    http.Handler
	httpServer *http.Server
	log        *slog.Logger
}

func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	(&api{layouts: opts.Layouts, defaults: opts.Defaults, log: logger}).register(mux)

	if opts.Socket != nil {
		mux.Handle("/ws", opts.Socket)
	}

	if opts.Frontend != nil {
		assets, err := newAssets(opts.Frontend, opts.Minify, logger)
		if err != nil {
			return nil, err
		}
		mux.Handle("/", assets)
	}

	return &Server{addr: opts.Addr, handler: mux, log: logger}, nil
}

// Handler exposes the routes without a listener.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("HTTP server listening", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("shutting down HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

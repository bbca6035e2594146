package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mandelsoft/animated/pkg/service"
)

// Server is an HTTP server usable as service.
// Handlers can be registered with Handle and HandleFunc.
type Server struct {
	*http.Server
	*http.ServeMux

	shutdownTimeout time.Duration
	addr            chan net.Addr
	done            service.Syncher
}

var _ service.Service = (*Server)(nil)

// NewServer creates a server for the given port. With def the handlers
// registered with Register are served, too. The port 0 selects a
// free port, which is reported by Addr after the start.
func NewServer(port int, def bool, shutdownTimeout time.Duration) *Server {
	mux := http.NewServeMux()
	if def {
		mux.Handle("/", defaultMux)
	}
	return &Server{
		Server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		ServeMux:        mux,
		shutdownTimeout: shutdownTimeout,
		addr:            make(chan net.Addr, 1),
	}
}

// Start listens on the configured port and serves requests until the
// context is cancelled.
func (s *Server) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	l, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return nil, nil, err
	}
	s.addr <- l.Addr()
	log.Info("listening on {{addr}}", "addr", l.Addr())

	wg := &sync.WaitGroup{}
	wg.Add(1)
	s.done = service.Sync(wg)
	go func() {
		defer wg.Done()
		s.done.SetError(s.serveContext(ctx, l))
	}()
	return nil, s.done, nil
}

func (s *Server) Wait() error {
	if s.done == nil {
		return nil
	}
	return s.done.Wait()
}

// Addr provides the listen address once the server is started.
func (s *Server) Addr() net.Addr {
	a := <-s.addr
	s.addr <- a
	return a
}

// ListenAndServeContext serves requests until the context is cancelled.
func (s *Server) ListenAndServeContext(ctx context.Context) error {
	l, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return err
	}
	s.addr <- l.Addr()
	return s.serveContext(ctx, l)
}

func (s *Server) serveContext(ctx context.Context, l net.Listener) error {
	serverErr := make(chan error, 1)
	go func() {
		// Shutdown causes Serve to return http.ErrServerClosed,
		// the shutdown result is reported instead.
		serverErr <- s.Serve(l)
	}()
	var err error
	select {
	case <-ctx.Done():
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		log.Info("shutting down server")
		err = s.Shutdown(ctx)
	case err = <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	return err
}

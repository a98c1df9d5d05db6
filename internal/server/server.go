// Package server assembles the router, middleware and greeting route into an
// http.Server and owns its listening socket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/greeting-service/internal/config"
	"github.com/janisto/greeting-service/internal/http/greeting"
	applog "github.com/janisto/greeting-service/internal/platform/logging"
	appmiddleware "github.com/janisto/greeting-service/internal/platform/middleware"
	"github.com/janisto/greeting-service/internal/platform/respond"
)

// State is the lifecycle position of a Server.
type State int

const (
	// StateStopped means no socket is held.
	StateStopped State = iota
	// StateListening means the socket is bound and accepting.
	StateListening
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateListening:
		return "listening"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// BindError reports that the listening socket could not be acquired.
// It is fatal: callers exit the process rather than retry.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// ErrNotListening is returned by Serve when Listen has not succeeded.
var ErrNotListening = errors.New("server is not listening")

// Server is one HTTP server with the greeting route registered.
type Server struct {
	cfg     config.Config
	router  chi.Router
	api     huma.API
	httpSrv *http.Server

	mu       sync.Mutex
	listener net.Listener
	state    State
}

// New builds the router and http.Server for cfg. No socket is opened.
func New(cfg config.Config, version string) *Server {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP trusts X-Forwarded-For / X-Real-IP; deploy behind a proxy that sets them.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20),
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	humaCfg := huma.DefaultConfig("Greeting Service", version)
	// GET / is the only route served.
	humaCfg.OpenAPIPath = ""
	humaCfg.DocsPath = ""
	humaCfg.SchemasPath = ""
	api := humachi.New(router, humaCfg)

	greeting.Register(api, cfg.Greeting)

	return &Server{
		cfg:    cfg,
		router: router,
		api:    api,
		httpSrv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadTimeout:       5 * time.Second,
			ReadHeaderTimeout: 2 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    64 << 10,
		},
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API exposes the huma API, mainly for OpenAPI inspection.
func (s *Server) API() huma.API {
	return s.api
}

// State reports whether the server currently holds its socket.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound address once listening, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpSrv.Addr
}

// Listen binds the configured address. Failure leaves the server stopped and
// is reported as *BindError.
func (s *Server) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateListening {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.httpSrv.Addr)
	if err != nil {
		return &BindError{Addr: s.httpSrv.Addr, Err: err}
	}
	s.listener = ln
	s.state = StateListening
	applog.LogInfo(ctx, "server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Serve accepts connections until ctx is cancelled, then closes the server
// and its connections immediately. It returns nil after a cancellation and the
// accept error otherwise.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}
	defer s.markStopped()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpSrv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		applog.LogInfo(context.Background(), "stop requested", zap.String("addr", ln.Addr().String()))
	}
	if err := s.httpSrv.Close(); err != nil {
		return fmt.Errorf("close server: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = nil
	s.state = StateStopped
}

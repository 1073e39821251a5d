package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
	"github.com/kbukum/injectkit/server/endpoint"
	"github.com/kbukum/injectkit/server/middleware"
)

// Routes served by NewHandler.
const (
	PathHealth        = "/healthz"
	PathRegistrations = "/registrations"
)

// NewHandler returns the introspection API for reg:
//
//	GET /healthz               service and registry health
//	GET /registrations         every registered key
//	GET /registrations/{key}   one key, 404 NOT_FOUND if unknown
func NewHandler(reg *di.Registry, serviceName string) http.Handler {
	return newEngine(reg, serviceName, "", logger.WithComponent("server"))
}

func newEngine(reg *di.Registry, serviceName, version string, log *logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Recovery(log), middleware.RequestID(), middleware.RequestLogger(log))

	engine.GET(PathHealth, endpoint.Health(serviceName, version, observability.RegistryChecker{Registry: reg}))
	engine.GET(PathRegistrations, endpoint.Registrations(reg))
	engine.GET(PathRegistrations+"/*key", endpoint.Registration(reg))
	return engine
}

// Server serves the introspection API over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	log        *logger.Logger
}

// New creates a Server for reg. Call Start to begin serving.
func New(cfg Config, reg *di.Registry, serviceName, version string, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log = log.WithComponent("server")
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      h2c.NewHandler(newEngine(reg, serviceName, version, log), h2s),
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		log: log,
	}
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("introspection server started", logger.Fields("addr", s.Addr()))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("introspection server stopped")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

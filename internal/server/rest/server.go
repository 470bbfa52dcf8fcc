package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/logging"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// Server is the HTTP endpoint serving every registered resource.
type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

// Registrar adds a resource's routes to a route group.
type Registrar interface {
	Register(g gin.IRoutes)
}

// NewServer builds the router: request logging, principal resolution and
// one route group per resource under /api.
func NewServer(address string, l logging.Logger, a *auth.Authorizer, resources map[string]Registrar) *Server {
	logger := l.With("module", "http_server")

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(logger), Authenticate(a))

	api := engine.Group("/api")
	for path, res := range resources {
		res.Register(api.Group("/" + path))
	}

	return &Server{address: address, engine: engine, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

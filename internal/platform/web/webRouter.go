package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, handler *WebHandler, gatherer prometheus.Gatherer) {
	api := r.Group("/api")
	{
		api.GET("/session", handler.ActiveSessions)
		api.GET("/progress", handler.AllProgress)
		api.GET("/progress/:sessionId", handler.GetProgress)
		api.POST("/stop/:sessionId", handler.StopSession)
		api.GET("/sessions", handler.ListSessions)
		api.GET("/sessions/:sessionId", handler.GetSession)
	}
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// NewRouter builds a gin engine without gin's own request logging; requests
// are logged through slog at debug level.
func NewRouter(handler *WebHandler, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	SetupRoutes(r, handler, gatherer)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("status request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}

// Server serves the status API next to a running search.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewServer(addr string, router http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned; later serve errors are logged.
func (s *Server) Start() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server stopped", "error", err)
		}
	}()
	s.logger.Info("status server listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

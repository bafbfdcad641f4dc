package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"time"

	"github.com/atikulmunna/syslens/internal/config"
	"github.com/atikulmunna/syslens/internal/metrics"
	"github.com/atikulmunna/syslens/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the Gin engine and dependencies for the HTTP API.
type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an HTTP server over the filtering pipeline.
func New(cfg config.Config, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		engine:   engine,
		cfg:      cfg,
		registry: reg,
		metrics:  metrics.New(reg),
		logger:   logger,
	}
	engine.Use(s.requestLogger())

	s.setupRoutes()
	return s
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRoutes() {
	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api", s.limitBody(), s.workDir())
	api.POST("/filter", s.handleFilter)
	api.POST("/summary", s.handleSummary)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// requestLogger logs one line per request with its id.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)

		c.Next()

		s.logger.Info("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) limitBody() gin.HandlerFunc {
	limit := s.cfg.Server.MaxUploadMB << 20
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// workDir gives each request its own scratch directory and removes it afterwards.
func (s *Server) workDir() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Get(requestIDKey)
		name, _ := id.(string)
		if name == "" {
			name = uuid.NewString()
		}
		dir := filepath.Join(s.cfg.WorkDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.Error("create work dir", "dir", dir, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cannot create work directory"})
			return
		}
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				s.logger.Warn("remove work dir", "dir", dir, "error", err)
			}
		}()

		c.Set(workDirKey, dir)
		c.Next()
	}
}

func (s *Server) pipeline(c *gin.Context, member string) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		WorkDir:  c.GetString(workDirKey),
		Parallel: s.cfg.Load.Parallel,
		Member:   member,
		Metrics:  s.metrics,
		Logger:   s.logger.With("request_id", c.GetString(requestIDKey)),
	})
}

// Start runs the server until ctx is cancelled, then shuts it down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

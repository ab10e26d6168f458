// Package api exposes the analysis engine and the bar simulator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ChanSentinel/internal/collector"
	"ChanSentinel/internal/engine"
	"ChanSentinel/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// Config wires the server's dependencies.
type Config struct {
	Addr      string
	Engine    *engine.Engine
	Simulator *collector.Simulator
	// Defaults fills simulator fields a request leaves empty.
	Defaults collector.SimParams
}

// Server is the gin HTTP front end.
type Server struct {
	addr     string
	engine   *engine.Engine
	sim      *collector.Simulator
	defaults collector.SimParams
	router   *gin.Engine
	log      *logger.Entry
	now      func() time.Time
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Simulator == nil {
		cfg.Simulator = collector.NewSimulator(collector.DefaultSeed)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Defaults == (collector.SimParams{}) {
		cfg.Defaults = collector.DefaultSimParams()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:     cfg.Addr,
		engine:   cfg.Engine,
		sim:      cfg.Simulator,
		defaults: cfg.Defaults,
		router:   router,
		log:      logger.L().WithComponent("api"),
		now:      time.Now,
	}
	router.Use(s.requestLog)
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	analysis := s.router.Group("/api/analysis")
	analysis.POST("/complete", s.handleComplete)
	analysis.POST("/fenxing", s.handleFenxing)
	analysis.POST("/stroke", s.handleStroke)
	analysis.POST("/center", s.handleCenter)
	analysis.POST("/divergence", s.handleDivergence)
	analysis.GET("/summary", s.handleSummary)

	kline := s.router.Group("/api/kline")
	kline.POST("/generate", s.handleGenerate)
	kline.GET("/patterns/:type", s.handlePattern)
	kline.GET("/trending/:direction", s.handleTrending)
}

// Handler returns the router for use with an external server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLog tags each request with an ID and logs it at debug level.
func (s *Server) requestLog(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	started := time.Now()
	c.Next()
	s.log.LogDuration("request", started, logger.Fields{
		"request_id": id,
		"method":     c.Request.Method,
		"path":       c.FullPath(),
		"status":     c.Writer.Status(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": s.now()})
}

// Start runs the HTTP server, blocking until ctx is cancelled or serving fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithFields(logger.Fields{"addr": s.addr}).Info("http server listening")

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		s.log.Info("http server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

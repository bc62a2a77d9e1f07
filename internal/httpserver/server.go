package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/poller"
)

// SeriesCounter reports how many series have been discovered.
type SeriesCounter interface {
	Len() int
}

// StatusProvider reports the collection loop state.
type StatusProvider interface {
	Status() poller.Status
}

// Server publishes the registry for scraping.
type Server struct {
	addr      string
	gatherer  prometheus.Gatherer
	series    SeriesCounter
	status    StatusProvider
	log       *zap.Logger
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new scrape server.
func NewServer(addr string, gatherer prometheus.Gatherer, series SeriesCounter, status StatusProvider, log *zap.Logger) *Server {
	if addr == "" {
		addr = "0.0.0.0:8000"
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		gatherer: gatherer,
		series:   series,
		status:   status,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	metrics := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(s.log),
		ErrorHandling: promhttp.ContinueOnError,
	})
	r.GET("/metrics", gin.WrapH(metrics))
	r.GET("/api/health", s.handleHealth)
	return r
}

// Start binds the listener and serves in the background. It fails when the
// address cannot be bound.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}
	s.addr = listener.Addr().String()
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the listen address, resolved once Start has bound it.
func (s *Server) Addr() string { return s.addr }

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.status.Status()

	status := "ok"
	if st.LastError != "" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"uptime": time.Since(s.startTime).String(),
		"series": s.series.Len(),
		"poller": st,
	})
}

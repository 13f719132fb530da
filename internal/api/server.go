// Package api exposes the analyzer over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"txScope/internal/analysis"
	"txScope/internal/chain"
	"txScope/internal/model"
	"txScope/internal/storage/postgres"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*model.Artifact, error)
}

// Archive loads previously stored artifacts.
type Archive interface {
	Load(ctx context.Context, id string) (*model.Artifact, error)
}

// Options configures the router. Archive and Gatherer are optional.
type Options struct {
	Analyzer Analyzer
	Networks []model.NetworkDescriptor
	Archive  Archive
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type server struct {
	analyzer Analyzer
	networks []model.NetworkRef
	archive  Archive
	logger   *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &server{
		analyzer: opts.Analyzer,
		archive:  opts.Archive,
		logger:   opts.Logger.With(zap.String("component", "http")),
	}
	for _, network := range opts.Networks {
		s.networks = append(s.networks, network.Ref())
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := r.Group("/api")
	api.GET("/networks", s.listNetworks)
	api.GET("/analyze", s.analyzeQuery)
	api.POST("/analyze", s.analyzeBody)
	if s.archive != nil {
		api.GET("/analyses/:id", s.loadAnalysis)
	}

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func (s *server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *server) listNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"networks": s.networks})
}

func (s *server) analyzeQuery(c *gin.Context) {
	req := analysis.Request{Input: c.Query("input")}
	if raw := c.Query("network"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid network", "details": err.Error()})
			return
		}
		req.NetworkID = id
	}
	s.analyze(c, req)
}

func (s *server) analyzeBody(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	s.analyze(c, req)
}

func (s *server) analyze(c *gin.Context, req analysis.Request) {
	if req.Input == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
		return
	}
	artifact, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		body := gin.H{"error": err.Error()}
		var exhausted *chain.EndpointExhaustedError
		if errors.As(err, &exhausted) {
			body["endpoints"] = exhausted.Failures
		}
		c.JSON(StatusFor(err), body)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

func (s *server) loadAnalysis(c *gin.Context) {
	artifact, err := s.archive.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Warn("archive lookup failed", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive unavailable"})
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// StatusFor maps analysis errors to HTTP status codes.
func StatusFor(err error) int {
	var exhausted *chain.EndpointExhaustedError
	switch {
	case errors.Is(err, analysis.ErrInvalidInput), errors.Is(err, chain.ErrUnknownNetwork):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &exhausted):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

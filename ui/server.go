// Package ui serves computed diagnostics over HTTP: JSON for the
// programmatic API, rendered HTML reports for browsers.
package ui

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"mintpy/app"
	"mintpy/domain/core"
	"mintpy/domain/result"
	"mintpy/internal/report"
	"mintpy/ports"
)

// Server exposes a toolkit session's results. Both collaborators are
// optional: without a toolkit the live-result endpoints return 404,
// without a ledger the archive endpoints return 503.
type Server struct {
	toolkit *app.Toolkit
	ledger  ports.ResultLedger
	log     zerolog.Logger
	engine  *gin.Engine
}

// NewServer wires the routes. Mode should be one of gin's modes
// ("release", "debug", "test").
func NewServer(toolkit *app.Toolkit, ledger ports.ResultLedger, log zerolog.Logger, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	s := &Server{toolkit: toolkit, ledger: ledger, log: log, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	api := s.engine.Group("/api")
	{
		api.GET("/results/:method", s.getResult)
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id", s.getRun)
	}
	s.engine.GET("/report/:method", s.getReport)
}

// Run starts the server on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getResult returns the most recent cached store for a method.
func (s *Server) getResult(c *gin.Context) {
	method := core.Method(c.Param("method"))
	store, ok := s.cached(method)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results computed for method " + string(method)})
		return
	}
	c.JSON(http.StatusOK, store)
}

// getReport renders the cached store for a method as HTML.
func (s *Server) getReport(c *gin.Context) {
	method := core.Method(c.Param("method"))
	store, ok := s.cached(method)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results computed for method " + string(method)})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(store))
}

func (s *Server) cached(method core.Method) (*result.Store, bool) {
	if s.toolkit == nil {
		return nil, false
	}
	return s.toolkit.Cached(method)
}

func (s *Server) listRuns(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no result ledger configured"})
		return
	}
	method := core.Method(c.Query("method"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.ledger.ListRuns(c.Request.Context(), method, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no result ledger configured"})
		return
	}
	store, err := s.ledger.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, store)
}

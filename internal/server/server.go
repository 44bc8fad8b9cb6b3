package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/config"
	"github.com/nexusmind/nexusmind/internal/pipeline"
	"github.com/nexusmind/nexusmind/internal/session"
)

// Server wires the reasoning processor and session store into HTTP handlers.
type Server struct {
	processor *pipeline.Processor
	sessions  session.Store
	cfg       *config.Config
	log       *zap.Logger
}

func NewServer(p *pipeline.Processor, sessions session.Store, cfg *config.Config, log *zap.Logger) *Server {
	return &Server{processor: p, sessions: sessions, cfg: cfg, log: log}
}

func (s *Server) SetupRouter() *gin.Engine {
	if s.cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/mcp", s.HandleMCP)
	r.GET("/health", s.Health)
	r.GET("/sessions/:id", s.GetSession)

	return r
}

func (s *Server) Health(c *gin.Context) {
	status := gin.H{"status": "healthy", "server": mcpServerName, "version": mcpServerVersion}

	if s.processor == nil {
		status["status"] = "degraded"
		status["detail"] = "processor not initialized"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if _, _, err := s.processor.GraphCounts(ctx); err != nil {
		s.log.Warn("health probe failed", zap.Error(err))
		status["status"] = "degraded"
		status["detail"] = "graph store unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) GetSession(c *gin.Context) {
	id := c.Param("id")
	data, err := s.sessions.Get(c.Request.Context(), id)
	if err != nil {
		if err == session.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found", "session_id": id})
			return
		}
		s.log.Error("session lookup failed", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}
	c.JSON(http.StatusOK, data)
}

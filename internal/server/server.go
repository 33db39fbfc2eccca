// Package server exposes the upload/download HTTP surface of labflow.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labflowhq/labflow/internal/config"
	"github.com/labflowhq/labflow/internal/server/handler"
	"github.com/labflowhq/labflow/internal/server/middleware"
)

// Server wraps the gin engine and its routes.
type Server struct {
	router *gin.Engine
	cfg    *config.Config
}

// New builds the server around the given batch pipeline.
func New(cfg *config.Config, pipeline handler.Pipeline) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := handler.NewProcessHandler(pipeline)
	api := router.Group("/api/v1", middleware.RequireAPIKey(cfg.Server.APIKey))
	api.POST("/process", h.Process)

	return &Server{router: router, cfg: cfg}
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%d", s.cfg.Server.Port))
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

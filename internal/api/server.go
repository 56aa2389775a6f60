// Package api exposes the parse/validate pipeline over HTTP.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/matsen/refinery/internal/batch"
	"github.com/matsen/refinery/internal/cache"
	"github.com/matsen/refinery/internal/config"
	"github.com/matsen/refinery/internal/extract"
	"github.com/matsen/refinery/internal/validate"
)

// Server wires the pipeline components behind a gin engine.
type Server struct {
	engine *gin.Engine
	cfg    *config.Config
}

// NewServer builds the HTTP server over the given pipeline components.
func NewServer(cfg *config.Config, manager *batch.Manager, coordinator *validate.Coordinator, extractor extract.Extractor, store cache.Cache) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(CORS())

	api := NewAPI(cfg, manager, coordinator, extractor, store)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	return s.engine.Run(s.cfg.ListenAddr)
}

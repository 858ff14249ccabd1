// Package server exposes the catalog and its collections over a REST
// API built with gin, the teacher's HTTP framework of choice.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rdmurugan/d-vecDB/internal/catalog"
)

// Server wires the catalog to an HTTP router.
type Server struct {
	router  *gin.Engine
	catalog *catalog.Catalog
}

// New builds a Server over an already-open catalog.
func New(cat *catalog.Catalog) *Server {
	s := &Server{
		catalog: cat,
		router:  gin.Default(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealthCheck())
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/v1/collections", s.handleCreateCollection())
	s.router.GET("/v1/collections", s.handleListCollections())
	s.router.GET("/v1/collections/:name", s.handleGetCollection())
	s.router.DELETE("/v1/collections/:name", s.handleDeleteCollection())
	s.router.GET("/v1/collections/:name/stats", s.handleStats())
	s.router.POST("/v1/collections/:name/compact", s.handleCompact())

	s.router.POST("/v1/collections/:name/vectors", s.handleInsertVector())
	s.router.POST("/v1/collections/:name/vectors/batch", s.handleBatchInsertVectors())
	s.router.GET("/v1/collections/:name/vectors/:id", s.handleGetVector())
	s.router.PUT("/v1/collections/:name/vectors/:id", s.handleUpdateVector())
	s.router.DELETE("/v1/collections/:name/vectors/:id", s.handleDeleteVector())

	s.router.POST("/v1/collections/:name/search", s.handleSearch())
}

// Run starts the HTTP server, blocking until it exits.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler returns the underlying gin engine, for tests that want to
// drive requests with httptest without binding a real port.
func (s *Server) Handler() *gin.Engine { return s.router }

package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rdmurugan/d-vecDB/internal/catalog"
	"github.com/rdmurugan/d-vecDB/internal/engine/collection"
	"github.com/rdmurugan/d-vecDB/internal/engine/distance"
	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
	"github.com/rdmurugan/d-vecDB/pkg/metrics"
)

// statusFor maps an engine error Kind to the HTTP status the API
// surface reports it as. A Kind not in this table falls back to 500.
func statusFor(kind vecerr.Kind) int {
	switch kind {
	case vecerr.KindNotFound:
		return http.StatusNotFound
	case vecerr.KindAlreadyExists:
		return http.StatusConflict
	case vecerr.KindDimensionMismatch, vecerr.KindInvalidArgument:
		return http.StatusBadRequest
	case vecerr.KindCollectionUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(c *gin.Context, err error) {
	kind := vecerr.KindOf(err)
	c.JSON(statusFor(kind), ErrorResponse{Error: err.Error(), Kind: kind.String()})
}

func (s *Server) handleHealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *Server) getCollection(c *gin.Context) (*collection.Collection, bool) {
	name := c.Param("name")
	col, err := s.catalog.Get(name)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return col, true
}

func (s *Server) handleCreateCollection() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCollectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: vecerr.KindInvalidArgument.String()})
			return
		}
		dist := distance.Kind(req.Distance)
		if dist == "" {
			dist = distance.Cosine
		}
		m := catalog.Manifest{
			Dimension:               req.Dimension,
			Distance:                dist,
			M:                       req.M,
			EfConstruction:          req.EfConstruction,
			EfSearchDefault:         req.EfSearchDefault,
			MaxLayer:                req.MaxLayer,
			SearchFilterOverfetch:   req.SearchFilterOverfetch,
			VectorStoreInitialSlots: req.VectorStoreInitialSlots,
			WalSyncMode:             req.WalSyncMode,
			WalFsyncIntervalMs:      req.WalFsyncIntervalMs,
		}
		col, err := s.catalog.CreateCollection(req.Name, m)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CollectionResponse{Name: col.Name(), Dimension: col.Dimension(), Distance: req.Distance})
	}
}

func (s *Server) handleGetCollection() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, CollectionResponse{Name: col.Name(), Dimension: col.Dimension()})
	}
}

func (s *Server) handleDeleteCollection() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := s.catalog.DropCollection(name); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleListCollections() gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := s.catalog.List()
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ListCollectionsResponse{Collections: names})
	}
}

func (s *Server) handleInsertVector() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		var req InsertVectorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: vecerr.KindInvalidArgument.String()})
			return
		}
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id is not a valid UUID", Kind: vecerr.KindInvalidArgument.String()})
			return
		}

		start := time.Now()
		err = col.Insert(c.Request.Context(), id, req.Vector, req.Attributes)
		metrics.RequestDurationSeconds.WithLabelValues("insert").Observe(time.Since(start).Seconds())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, VectorResponse{ID: req.ID, Vector: req.Vector, Attributes: req.Attributes})
	}
}

func (s *Server) handleBatchInsertVectors() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		var req BatchInsertVectorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: vecerr.KindInvalidArgument.String()})
			return
		}
		items := make([]collection.BatchItem, len(req.Items))
		for i, it := range req.Items {
			id, err := uuid.Parse(it.ID)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id is not a valid UUID", Kind: vecerr.KindInvalidArgument.String()})
				return
			}
			items[i] = collection.BatchItem{ID: id, Vector: it.Vector, Attributes: it.Attributes}
		}
		if err := col.BatchInsert(c.Request.Context(), items); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, BatchInsertResponse{Inserted: len(items)})
	}
}

func (s *Server) handleGetVector() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id is not a valid UUID", Kind: vecerr.KindInvalidArgument.String()})
			return
		}
		vec, attrs, err := col.Get(id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, VectorResponse{ID: c.Param("id"), Vector: vec, Attributes: attrs})
	}
}

func (s *Server) handleUpdateVector() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id is not a valid UUID", Kind: vecerr.KindInvalidArgument.String()})
			return
		}
		var req UpdateVectorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: vecerr.KindInvalidArgument.String()})
			return
		}
		if err := col.Update(c.Request.Context(), id, req.Vector, req.Attributes); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, VectorResponse{ID: c.Param("id"), Vector: req.Vector, Attributes: req.Attributes})
	}
}

func (s *Server) handleDeleteVector() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id is not a valid UUID", Kind: vecerr.KindInvalidArgument.String()})
			return
		}
		if err := col.Delete(id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleSearch() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: vecerr.KindInvalidArgument.String()})
			return
		}

		start := time.Now()
		results, err := col.Search(c.Request.Context(), req.Vector, req.K, req.Ef, req.Filter)
		metrics.RequestDurationSeconds.WithLabelValues("search").Observe(time.Since(start).Seconds())
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]SearchResult, len(results))
		for i, r := range results {
			out[i] = SearchResult{ID: r.ID.String(), Distance: r.Distance, Attributes: r.Attributes}
		}
		c.JSON(http.StatusOK, SearchResponse{Results: out})
	}
}

func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		stats := col.Stats()
		c.JSON(http.StatusOK, StatsResponse{
			LiveCount:      stats.LiveCount,
			TombstoneCount: stats.TombstoneCount,
			BytesResident:  stats.BytesResident,
			LayerHistogram: stats.LayerHistogram,
		})
	}
}

func (s *Server) handleCompact() gin.HandlerFunc {
	return func(c *gin.Context) {
		col, ok := s.getCollection(c)
		if !ok {
			return
		}
		result, err := col.Compact(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CompactResponse{ReclaimedSlots: result.ReclaimedSlots})
	}
}

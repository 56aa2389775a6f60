package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matsen/refinery/internal/batch"
	"github.com/matsen/refinery/internal/cache"
	"github.com/matsen/refinery/internal/config"
	"github.com/matsen/refinery/internal/extract"
	"github.com/matsen/refinery/internal/validate"
)

// API holds the handlers' shared dependencies.
type API struct {
	cfg         *config.Config
	manager     *batch.Manager
	coordinator *validate.Coordinator
	extractor   extract.Extractor
	cache       cache.Cache
}

// NewAPI creates the handler set.
func NewAPI(cfg *config.Config, manager *batch.Manager, coordinator *validate.Coordinator, extractor extract.Extractor, store cache.Cache) *API {
	return &API{
		cfg:         cfg,
		manager:     manager,
		coordinator: coordinator,
		extractor:   extractor,
		cache:       store,
	}
}

func registerRoutes(engine *gin.Engine, api *API) {
	engine.GET("/api/health", api.Health)

	engine.POST("/api/parse", api.Parse)

	engine.GET("/api/batches", api.ListBatches)
	engine.GET("/api/batches/:id", api.GetBatch)
	engine.DELETE("/api/batches/:id", api.DeleteBatch)
	engine.POST("/api/batches/:id/validate", api.Validate)

	engine.GET("/api/cache/stats", api.CacheStats)
	engine.POST("/api/cache/clear", api.CacheClear)
}

// Health reports liveness.
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Parse accepts a document and creates a batch from its references.
// The body is either a JSON {"name", "text"} pair or a multipart form
// with a "file" part.
func (a *API) Parse(c *gin.Context) {
	doc, info, err := a.readDocument(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	refs, err := a.extractor.Parse(c.Request.Context(), doc)
	if err != nil {
		if errors.Is(err, extract.ErrNoReferences) {
			respondError(c, http.StatusUnprocessableEntity, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	b, err := a.manager.CreateBatch(info, refs)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"batch_id":          b.ID,
		"file_info":         b.FileInfo,
		"references":        b.References,
		"validation_status": b.Status,
		"summary":           batch.Summarize(b.References),
	})
}

func (a *API) readDocument(c *gin.Context) (extract.Document, batch.FileInfo, error) {
	if file, header, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return extract.Document{}, batch.FileInfo{}, err
		}
		info := batch.FileInfo{
			Filename:    header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			UploadedAt:  time.Now().UTC(),
		}
		return extract.Document{Name: header.Filename, Text: string(data)}, info, nil
	}

	var doc extract.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		return extract.Document{}, batch.FileInfo{}, err
	}
	info := batch.FileInfo{
		Filename:    doc.Name,
		Size:        int64(len(doc.Text)),
		ContentType: "text/plain",
		UploadedAt:  time.Now().UTC(),
	}
	return doc, info, nil
}

// ListBatches returns every batch, newest first.
func (a *API) ListBatches(c *gin.Context) {
	batches, err := a.manager.ListBatches()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches, "count": len(batches)})
}

// GetBatch returns one batch by ID.
func (a *API) GetBatch(c *gin.Context) {
	b, err := a.manager.GetBatch(c.Param("id"))
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBatch removes a batch. A batch mid-validation cannot be
// deleted.
func (a *API) DeleteBatch(c *gin.Context) {
	if err := a.manager.DeleteBatch(c.Param("id")); err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "batch deleted"})
}

// Validate runs enrichment over a batch and streams progress as
// newline-delimited JSON, one event per line.
func (a *API) Validate(c *gin.Context) {
	var opts validate.Options
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if opts.Mode == "" {
		opts.Mode = validate.Mode(a.cfg.DefaultMode)
	}
	if opts.Workers <= 0 {
		opts.Workers = a.cfg.Workers
	}
	if len(opts.Sources) == 0 {
		opts.Sources = a.cfg.Sources
	}

	events, err := a.coordinator.Run(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			// Client went away; the run context is tied to the request
			// and winds the workers down.
			for range events {
			}
			return
		}
		c.Writer.Flush()
	}
}

// CacheStats reports cache hit counters and occupancy.
func (a *API) CacheStats(c *gin.Context) {
	stats, err := a.cache.Stats()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CacheClear empties the enrichment cache.
func (a *API) CacheClear(c *gin.Context) {
	if err := a.cache.Clear(); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

// statusFor maps batch manager errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, batch.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, batch.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

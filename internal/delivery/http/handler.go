package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

const (
	TaskKindSync       = "sync"
	TaskKindBenchmarks = "benchmarks"
	TaskKindEnrich     = "enrich"
)

// Pipeline is the engine surface driven over HTTP
type Pipeline interface {
	RunSync(ctx context.Context, category domain.Category) (*domain.SyncResult, error)
	RunBenchmarks(ctx context.Context, category domain.Category) (*domain.BenchmarkResult, error)
	RunEnrichment(ctx context.Context, category domain.Category) (*domain.EnrichmentResult, error)
	ReconcileOffers(ctx context.Context, category domain.Category, offers []domain.Candidate) (*domain.OfferResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline Pipeline
	store    domain.CatalogStore
	tasks    *TaskManager
}

// NewHandler creates a new HTTP handler
func NewHandler(pipeline Pipeline, store domain.CatalogStore, tasks *TaskManager) *Handler {
	return &Handler{pipeline: pipeline, store: store, tasks: tasks}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pcsite-backend",
		"version": "1.0.0",
	})
}

// StartSync starts a crawl + catalog sync pass for the category
func (h *Handler) StartSync(c *gin.Context) {
	h.startTask(c, TaskKindSync, func(ctx context.Context, category domain.Category) (any, error) {
		result, err := h.pipeline.RunSync(ctx, category)
		return taskResult(result, err)
	})
}

// StartBenchmarks starts a benchmark attachment pass for the category
func (h *Handler) StartBenchmarks(c *gin.Context) {
	h.startTask(c, TaskKindBenchmarks, func(ctx context.Context, category domain.Category) (any, error) {
		result, err := h.pipeline.RunBenchmarks(ctx, category)
		return taskResult(result, err)
	})
}

// StartEnrichment starts a review enrichment pass for the category
func (h *Handler) StartEnrichment(c *gin.Context) {
	h.startTask(c, TaskKindEnrich, func(ctx context.Context, category domain.Category) (any, error) {
		result, err := h.pipeline.RunEnrichment(ctx, category)
		return taskResult(result, err)
	})
}

func (h *Handler) startTask(c *gin.Context, kind string, run func(context.Context, domain.Category) (any, error)) {
	category, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.tasks.Start(c.Request.Context(), kind, category, func(ctx context.Context) (any, error) {
		return run(ctx, category)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/api/v1/tasks/"+task.ID)
	c.JSON(http.StatusAccepted, task)
}

// taskResult drops typed nil results so they are omitted from task JSON
func taskResult[T any](result *T, err error) (any, error) {
	if result == nil {
		return nil, err
	}
	return result, err
}

// GetTask returns the status of a background task
func (h *Handler) GetTask(c *gin.Context) {
	task, ok := h.tasks.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// OfferRequest is the body of an offer reconciliation request
type OfferRequest struct {
	Offers []domain.Candidate `json:"offers" binding:"required"`
}

// ReconcileOffers matches the posted offers against the category and records prices.
// It answers 409 while a sync of the category runs. Record failures still return the
// pass summary.
func (h *Handler) ReconcileOffers(c *gin.Context) {
	category, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	// Offers write prices of the category, so they share the sync slot
	var result *domain.OfferResult
	_, err = h.tasks.RunExclusive(c.Request.Context(), TaskKindSync, category, func(ctx context.Context) (any, error) {
		var passErr error
		result, passErr = h.pipeline.ReconcileOffers(ctx, category, req.Offers)
		return result, passErr
	})
	if err != nil && !(errors.Is(err, domain.ErrPartialSync) && result != nil) {
		respondError(c, err)
		return
	}

	body := gin.H{"result": result}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// ListProducts returns the catalog entries of a category
func (h *Handler) ListProducts(c *gin.Context) {
	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.store.ListByCategory(c.Request.Context(), category)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"count":    len(entries),
		"products": entries,
	})
}

// GetProduct returns one catalog entry with its price history
func (h *Handler) GetProduct(c *gin.Context) {
	entry, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnsupportedCategory):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTaskRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCollaboratorFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

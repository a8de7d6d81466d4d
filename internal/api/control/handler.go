// Package control exposes the application store and its workflows to the
// presentation layer over HTTP.
package control

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askdesk/internal/client"
	"github.com/liliang-cn/askdesk/internal/domain"
	"github.com/liliang-cn/askdesk/internal/service"
	"github.com/liliang-cn/askdesk/internal/state"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// healthTTL is how long a successful upstream health report is reused
const healthTTL = 5 * time.Second

const healthKey = "upstream"

// Workflows is the part of the coordinator the handler drives
type Workflows interface {
	LoadDocuments(ctx context.Context) error
	Upload(ctx context.Context, upload domain.Upload) error
	DeleteDocument(ctx context.Context, id string) error
	SubmitQuery(ctx context.Context) error
	ClearResults()
	ToggleTheme() domain.Theme
}

// HealthChecker reports on the remote document service
type HealthChecker interface {
	Health(ctx context.Context) (*client.HealthStatus, error)
}

// Handler handles control API requests
type Handler struct {
	store     *state.Store
	workflows Workflows
	health    HealthChecker
	policy    service.UploadPolicy
	logger    *zap.Logger

	healthCache *cache.Cache
}

// NewHandler creates a new control handler
func NewHandler(store *state.Store, workflows Workflows, health HealthChecker, policy service.UploadPolicy, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     store,
		workflows: workflows,
		health:    health,
		policy:    policy,
		logger:    logger,

		healthCache: cache.New(healthTTL, time.Minute),
	}
}

// RegisterRoutes registers control routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/state", h.GetState)
	r.POST("/dispatch", h.Dispatch)

	documents := r.Group("/documents")
	{
		documents.POST("/reload", h.ReloadDocuments)
		documents.POST("", h.UploadDocument)
		documents.DELETE("/:id", h.DeleteDocument)
	}

	query := r.Group("/query")
	{
		query.POST("", h.SubmitQuery)
		query.POST("/clear", h.ClearResults)
	}

	r.POST("/theme/toggle", h.ToggleTheme)
	r.GET("/health/upstream", h.UpstreamHealth)
}

// QueryRequest optionally updates the query box before submitting
type QueryRequest struct {
	Query *string          `json:"query"`
	Mode  domain.QueryMode `json:"mode" binding:"omitempty,oneof=web pdf hybrid restricted"`
}

func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) Dispatch(c *gin.Context) {
	var env state.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := state.DecodeViewAction(env)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.store.Dispatch(action)
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) ReloadDocuments(c *gin.Context) {
	if err := h.workflows.LoadDocuments(workflowContext(c)); err != nil {
		h.workflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	if err := h.policy.Check(file.Filename, file.Size); err != nil {
		h.workflowError(c, err)
		return
	}

	f, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer f.Close()

	if err := h.policy.CheckContent(file.Filename, f); err != nil {
		h.workflowError(c, err)
		return
	}

	upload := domain.Upload{Filename: file.Filename, Size: file.Size, Content: f}
	if err := h.workflows.Upload(workflowContext(c), upload); err != nil {
		h.workflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.store.Snapshot())
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := h.workflows.DeleteDocument(workflowContext(c), id); err != nil {
		h.workflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) SubmitQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Query != nil {
		h.store.Dispatch(state.SetCurrentQuery{Query: *req.Query})
	}
	if req.Mode != "" {
		h.store.Dispatch(state.SetQueryMode{Mode: req.Mode})
	}

	if err := h.workflows.SubmitQuery(workflowContext(c)); err != nil {
		h.workflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) ClearResults(c *gin.Context) {
	h.workflows.ClearResults()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) ToggleTheme(c *gin.Context) {
	h.workflows.ToggleTheme()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) UpstreamHealth(c *gin.Context) {
	if cached, ok := h.healthCache.Get(healthKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	status, err := h.health.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	h.healthCache.SetDefault(healthKey, status)
	c.JSON(http.StatusOK, status)
}

// workflowContext keeps a workflow running when the view that started it
// goes away; the service client's timeout still bounds every call.
func workflowContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *Handler) workflowError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrQuerySuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.IsServiceError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Workflow failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

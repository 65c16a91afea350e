package catalog

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mataleao/backend/pkg/response"
)

// CreateCategoryRequest is the body for POST /categories.
type CreateCategoryRequest struct {
	Type        string  `json:"type" binding:"required"`
	Description *string `json:"description"`
}

// Handler handles belt and category HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListBelts handles GET /belts.
func (h *Handler) ListBelts(c *gin.Context) {
	list, err := h.repo.ListBelts(c.Request.Context())
	if err != nil {
		h.logger.Error("list belts failed", zap.Error(err))
		response.Internal(c, "failed to load belts")
		return
	}
	response.OK(c, gin.H{"belts": list})
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.repo.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("list categories failed", zap.Error(err))
		response.Internal(c, "failed to load categories")
		return
	}
	response.OK(c, gin.H{"categories": list})
}

// CreateCategory handles POST /categories (admin via route middleware).
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cat, err := h.repo.CreateCategory(c.Request.Context(), req.Type, req.Description)
	if err != nil {
		h.logger.Error("create category failed", zap.Error(err))
		response.Internal(c, "failed to create category")
		return
	}
	response.Created(c, cat)
}

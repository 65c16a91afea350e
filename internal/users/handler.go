package users

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mataleao/backend/internal/middleware"
	"github.com/mataleao/backend/pkg/response"
	"github.com/mataleao/backend/pkg/storage"
)

// UpdateProfileRequest is the body for PATCH /users/profile.
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// Handler handles user profile HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	loc    *time.Location
	logger *zap.Logger
}

// NewHandler creates a users handler. s3 may be nil; avatar upload responds
// 503-equivalent then.
func NewHandler(repo *Repository, s3 *storage.S3, loc *time.Location, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, loc: loc, logger: logger}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	idVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := idVal.(uuid.UUID)
	return id, ok
}

// Profile handles GET /users/profile.
func (h *Handler) Profile(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	p, err := h.repo.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("load profile failed", zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}
	if p == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, p)
}

// UpdateProfile handles PATCH /users/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Name == nil && req.Phone == nil {
		response.BadRequest(c, "nothing to update")
		return
	}
	if req.Name != nil && *req.Name == "" {
		response.BadRequest(c, "name must not be empty")
		return
	}
	if err := h.repo.UpdateProfile(c.Request.Context(), id, req.Name, req.Phone); err != nil {
		h.logger.Error("update profile failed", zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	p, err := h.repo.GetProfile(c.Request.Context(), id)
	if err != nil || p == nil {
		response.Internal(c, "failed to load profile")
		return
	}
	response.OK(c, p)
}

// GetSummary handles GET /users/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	now := time.Now().In(h.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	s, err := h.repo.GetSummary(c.Request.Context(), id, monthStart, monthEnd)
	if err != nil {
		h.logger.Error("load summary failed", zap.Error(err))
		response.Internal(c, "failed to load summary")
		return
	}
	if s == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, gin.H{"summary": s})
}

// GetRanking handles GET /users/ranking.
func (h *Handler) GetRanking(c *gin.Context) {
	list, err := h.repo.Ranking(c.Request.Context(), 50)
	if err != nil {
		h.logger.Error("load ranking failed", zap.Error(err))
		response.Internal(c, "failed to load ranking")
		return
	}
	response.OK(c, gin.H{"ranking": list})
}

// GetUpcomingClasses handles GET /users/upcoming-classes.
func (h *Handler) GetUpcomingClasses(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	list, err := h.repo.UpcomingClasses(c.Request.Context(), id, time.Now())
	if err != nil {
		h.logger.Error("load upcoming classes failed", zap.Error(err))
		response.Internal(c, "failed to load upcoming classes")
		return
	}
	response.OK(c, gin.H{"classes": list})
}

// UploadAvatar handles POST /users/avatar (multipart field "file").
func (h *Handler) UploadAvatar(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "avatar storage is not configured")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxAvatarFileSize {
		response.BadRequest(c, "file too large (max 5MB)")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateAvatarFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type, use jpeg/png/webp")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer file.Close()

	key := storage.AvatarKey(id.String(), fileHeader.Filename)
	url, err := h.s3.UploadAvatar(c.Request.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("avatar upload failed", zap.Error(err), zap.String("user_id", id.String()))
		response.Internal(c, "failed to upload avatar")
		return
	}
	if err := h.repo.SetAvatarURL(c.Request.Context(), id, url); err != nil {
		h.logger.Error("store avatar url failed", zap.Error(err), zap.String("user_id", id.String()))
		response.Internal(c, "failed to store avatar")
		return
	}
	response.OK(c, gin.H{"avatar_url": url})
}

package checkin

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mataleao/backend/internal/middleware"
	"github.com/mataleao/backend/internal/models"
	"github.com/mataleao/backend/pkg/response"
)

// Request is the body for POST /checkins and PATCH /checkins/cancel.
// UserID is optional; admins and instructors use it to act for a student.
type Request struct {
	ClassID string `json:"class_id" binding:"required,uuid"`
	UserID  string `json:"user_id" binding:"omitempty,uuid"`
}

// Handler handles check-in HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a check-in handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /checkins.
func (h *Handler) Create(c *gin.Context) {
	p, req, ok := h.parse(c)
	if !ok {
		return
	}
	res, err := h.svc.Create(c.Request.Context(), p, req.targetID, req.classID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, res)
}

// Cancel handles PATCH /checkins/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	p, req, ok := h.parse(c)
	if !ok {
		return
	}
	res, err := h.svc.Cancel(c.Request.Context(), p, req.targetID, req.classID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, res)
}

type parsedRequest struct {
	classID  uuid.UUID
	targetID uuid.UUID
}

func (h *Handler) parse(c *gin.Context) (Principal, parsedRequest, bool) {
	var body Request
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return Principal{}, parsedRequest{}, false
	}
	classID, err := uuid.Parse(body.ClassID)
	if err != nil {
		response.BadRequest(c, "invalid class id")
		return Principal{}, parsedRequest{}, false
	}
	var targetID uuid.UUID
	if body.UserID != "" {
		targetID, err = uuid.Parse(body.UserID)
		if err != nil {
			response.BadRequest(c, "invalid user id")
			return Principal{}, parsedRequest{}, false
		}
	}
	p, ok := principalFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return Principal{}, parsedRequest{}, false
	}
	return p, parsedRequest{classID: classID, targetID: targetID}, true
}

func principalFrom(c *gin.Context) (Principal, bool) {
	idVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return Principal{}, false
	}
	id, ok := idVal.(uuid.UUID)
	if !ok {
		return Principal{}, false
	}
	roleVal, _ := c.Get(middleware.ContextUserRole)
	role, _ := roleVal.(models.Role)
	return Principal{ID: id, Role: role}, true
}

// writeError maps domain error kinds to stable HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrClassNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrCheckinNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrAlreadyCheckedIn),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrCapacityExceeded):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrUserInactive),
		errors.Is(err, ErrClassAlreadyStarted):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("check-in operation failed", zap.Error(err))
		response.Internal(c, "check-in operation failed")
	}
}

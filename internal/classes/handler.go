package classes

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mataleao/backend/internal/models"
	"github.com/mataleao/backend/pkg/response"
)

// CreateRequest is the body for POST /classes.
type CreateRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Date         string  `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime    string  `json:"start_time" binding:"required,datetime=15:04"`
	EndTime      string  `json:"end_time" binding:"required,datetime=15:04"`
	InstructorID string  `json:"instructor_id" binding:"required,uuid"`
	CategoryID   string  `json:"category_id" binding:"required,uuid"`
	Capacity     *int    `json:"capacity"`
}

// Recurrence describes the weekly repetition window for bulk creation.
type Recurrence struct {
	DaysOfWeek []int  `json:"days_of_week" binding:"required,min=1"`
	StartDate  string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// CreateBulkRequest is the body for POST /classes/bulk.
type CreateBulkRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	StartTime    string     `json:"start_time" binding:"required,datetime=15:04"`
	EndTime      string     `json:"end_time" binding:"required,datetime=15:04"`
	InstructorID string     `json:"instructor_id" binding:"required,uuid"`
	CategoryID   string     `json:"category_id" binding:"required,uuid"`
	Capacity     *int       `json:"capacity"`
	Recurrence   Recurrence `json:"recurrence" binding:"required"`
}

const defaultCapacity = 10

// Handler handles class HTTP endpoints.
type Handler struct {
	repo   *Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewHandler creates a classes handler.
func NewHandler(repo *Repository, loc *time.Location, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, loc: loc, logger: logger}
}

// Create handles POST /classes (instructor/admin via route middleware).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	instructorID, _ := uuid.Parse(req.InstructorID)
	categoryID, _ := uuid.Parse(req.CategoryID)

	ctx := c.Request.Context()
	if !h.validateRefs(c, instructorID, categoryID) {
		return
	}

	start, end, err := CombineDateTime(req.Date, req.StartTime, req.EndTime, h.loc)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if start.Before(time.Now()) {
		response.BadRequest(c, errStartedInPast.Error())
		return
	}
	date, _ := time.ParseInLocation(DateLayout, req.Date, h.loc)

	capacity := defaultCapacity
	if req.Capacity != nil {
		if *req.Capacity < 0 {
			response.BadRequest(c, "capacity must not be negative")
			return
		}
		capacity = *req.Capacity
	}

	cl, err := h.repo.Create(ctx, CreateParams{
		Title:        req.Title,
		Description:  req.Description,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		InstructorID: instructorID,
		CategoryID:   categoryID,
		Capacity:     capacity,
	})
	if err != nil {
		h.logger.Error("create class failed", zap.Error(err))
		response.Internal(c, "failed to create class")
		return
	}
	response.Created(c, cl)
}

// CreateBulk handles POST /classes/bulk: expands the recurrence and inserts
// one class per matching date, all or nothing.
func (h *Handler) CreateBulk(c *gin.Context) {
	var req CreateBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	instructorID, _ := uuid.Parse(req.InstructorID)
	categoryID, _ := uuid.Parse(req.CategoryID)

	ctx := c.Request.Context()
	if !h.validateRefs(c, instructorID, categoryID) {
		return
	}

	dates, err := GenerateDates(req.Recurrence.StartDate, req.Recurrence.EndDate, req.Recurrence.DaysOfWeek, h.loc)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if len(dates) == 0 {
		response.BadRequest(c, "recurrence produces no dates")
		return
	}

	capacity := defaultCapacity
	if req.Capacity != nil {
		if *req.Capacity < 0 {
			response.BadRequest(c, "capacity must not be negative")
			return
		}
		capacity = *req.Capacity
	}

	recurrenceID := uuid.New()
	params := make([]CreateParams, 0, len(dates))
	for _, date := range dates {
		day := date.Format(DateLayout)
		start, end, err := CombineDateTime(day, req.StartTime, req.EndTime, h.loc)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		params = append(params, CreateParams{
			Title:        req.Title,
			Description:  req.Description,
			Date:         date,
			StartTime:    start,
			EndTime:      end,
			InstructorID: instructorID,
			CategoryID:   categoryID,
			Capacity:     capacity,
			IsRecurring:  true,
			RecurrenceID: &recurrenceID,
		})
	}

	created, err := h.repo.CreateBulk(ctx, params)
	if err != nil {
		h.logger.Error("create recurring classes failed", zap.Error(err))
		response.Internal(c, "failed to create classes")
		return
	}
	response.Created(c, gin.H{
		"recurrence_id": recurrenceID,
		"created":       len(created),
		"classes":       created,
	})
}

// List handles GET /classes with query filters and cursor pagination.
func (h *Handler) List(c *gin.Context) {
	f := ListFilter{
		Date:      c.Query("date"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Status:    models.ClassPhase(c.Query("status")),
		Order:     c.DefaultQuery("order", "asc"),
	}
	switch f.Status {
	case "", models.PhaseNotStarted, models.PhaseInProgress, models.PhaseFinished:
	default:
		response.BadRequest(c, "invalid status filter")
		return
	}
	if v := c.Query("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid category id")
			return
		}
		f.CategoryID = id
	}
	if v := c.Query("cursor"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid cursor")
			return
		}
		f.Cursor = id
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}

	list, next, err := h.repo.List(c.Request.Context(), f, time.Now(), h.loc)
	if err != nil {
		h.logger.Error("list classes failed", zap.Error(err))
		response.Internal(c, "failed to list classes")
		return
	}
	body := gin.H{"classes": list}
	if next != uuid.Nil {
		body["next_cursor"] = next
	}
	response.OK(c, body)
}

// GetByID handles GET /classes/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid class id")
		return
	}
	d, err := h.repo.GetDetailByID(c.Request.Context(), id, time.Now(), h.loc)
	if err != nil {
		h.logger.Error("get class failed", zap.Error(err))
		response.Internal(c, "failed to load class")
		return
	}
	if d == nil {
		response.NotFound(c, "class not found")
		return
	}
	response.OK(c, d)
}

// Recent handles GET /classes/recent.
func (h *Handler) Recent(c *gin.Context) {
	limit := 5
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	list, err := h.repo.Recent(c.Request.Context(), limit, time.Now(), h.loc)
	if err != nil {
		h.logger.Error("recent classes failed", zap.Error(err))
		response.Internal(c, "failed to load recent classes")
		return
	}
	response.OK(c, gin.H{"classes": list})
}

// validateRefs checks instructor and category references for class creation.
func (h *Handler) validateRefs(c *gin.Context, instructorID, categoryID uuid.UUID) bool {
	instructor, err := h.repo.GetInstructor(c.Request.Context(), instructorID)
	if err != nil {
		h.logger.Error("lookup instructor failed", zap.Error(err))
		response.Internal(c, "failed to create class")
		return false
	}
	if instructor == nil {
		response.BadRequest(c, "instructor not found")
		return false
	}
	if instructor.Role == models.RoleStudent {
		response.BadRequest(c, "the specified user is not an instructor")
		return false
	}
	ok, err := h.repo.CategoryExists(c.Request.Context(), categoryID)
	if err != nil {
		h.logger.Error("lookup category failed", zap.Error(err))
		response.Internal(c, "failed to create class")
		return false
	}
	if !ok {
		response.BadRequest(c, "category not found")
		return false
	}
	return true
}

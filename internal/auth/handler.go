package auth

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mataleao/backend/internal/models"
	"github.com/mataleao/backend/pkg/queue"
	"github.com/mataleao/backend/pkg/response"
	"github.com/mataleao/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	BeltID   string `json:"belt_id" binding:"required,uuid"`
	Phone    string `json:"phone"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ActivateRequest is the body for POST /auth/activate.
type ActivateRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// ResendCodeRequest is the body for POST /auth/resend-code.
type ResendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo    *Repository
	jwt     *JWTService
	queue   *queue.Queue
	codeTTL time.Duration
	logger  *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, q *queue.Queue, codeTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, queue: q, codeTTL: codeTTL, logger: logger}
}

// Register handles POST /auth/register. The account starts inactive; a
// verification code is emailed through the worker queue.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	beltID, err := uuid.Parse(req.BeltID)
	if err != nil {
		response.BadRequest(c, "invalid belt id")
		return
	}

	ctx := c.Request.Context()
	existing, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}
	if existing != nil {
		response.Conflict(c, "a user with this email already exists")
		return
	}

	passwordHash, err := utils.HashSecret(req.Password)
	if err != nil {
		h.logger.Error("hash password failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	user, err := h.repo.Create(ctx, CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		BeltID:       beltID,
		Phone:        req.Phone,
	})
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	if err := h.issueCode(ctx, user); err != nil {
		h.logger.Error("issue verification code failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to send verification code")
		return
	}

	response.Created(c, gin.H{
		"user":    user.ToPublic(),
		"message": "account created, check your email for the activation code",
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "failed to login")
		return
	}
	if user == nil || !utils.CheckSecret(req.Password, user.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	if !user.IsActive {
		response.Forbidden(c, "this account has not been activated")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to login")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Activate handles POST /auth/activate. Consuming the code and flipping the
// active flag commit together.
func (h *Handler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "failed to activate account")
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}
	if user.IsActive {
		response.Conflict(c, "account is already active")
		return
	}

	conf, err := h.repo.GetActiveConfirmation(ctx, user.ID, time.Now())
	if err != nil {
		h.logger.Error("lookup confirmation failed", zap.Error(err))
		response.Internal(c, "failed to activate account")
		return
	}
	if conf == nil || !utils.CheckSecret(req.Code, conf.CodeHash) {
		response.BadRequest(c, "invalid or expired code")
		return
	}

	if err := h.repo.ConsumeAndActivate(ctx, conf.ID, user.ID); err != nil {
		h.logger.Error("activate account failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to activate account")
		return
	}
	response.OK(c, gin.H{"message": "account activated"})
}

// ResendCode handles POST /auth/resend-code.
func (h *Handler) ResendCode(c *gin.Context) {
	var req ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "failed to resend code")
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}
	if user.IsActive {
		response.Conflict(c, "account is already active")
		return
	}

	if err := h.issueCode(ctx, user); err != nil {
		h.logger.Error("issue verification code failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to resend code")
		return
	}
	response.OK(c, gin.H{"message": "a new activation code was sent"})
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	idVal, ok := c.Get("user_id") // middleware.ContextUserID; literal avoids an import cycle
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	id, _ := idVal.(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// issueCode creates a fresh activation code for the user and enqueues the
// email job carrying the plain code; only the hash is persisted.
func (h *Handler) issueCode(ctx context.Context, user *models.User) error {
	code, err := GenerateCode()
	if err != nil {
		return err
	}
	codeHash, err := utils.HashSecret(code)
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(h.codeTTL)
	if _, err := h.repo.CreateConfirmation(ctx, user.ID, codeHash, expiresAt); err != nil {
		return err
	}
	return h.queue.EnqueueVerificationEmail(ctx, queue.VerificationEmailPayload{
		UserID:         user.ID,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Code:           code,
		ExpiresAt:      expiresAt,
	})
}

package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicbr/backoffice-api/internal/middleware"
	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/service/auth"
	"github.com/clinicbr/backoffice-api/pkg/httputil"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the public authentication endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	accounts := r.Group("/auth")
	{
		accounts.POST("/register", h.Register)
		accounts.POST("/login", h.Login)
		accounts.POST("/password/forgot", h.ForgotPassword)
		accounts.POST("/password/reset", h.ResetPassword)
	}
}

// RegisterProtectedRoutes wires endpoints that need a verified session.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/auth/password/change", h.ChangePassword)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			httputil.RespondWithStatusError(c, http.StatusConflict, "email already registered")
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httputil.RespondWithStatusError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, token)
}

// ForgotPassword always answers 200 so the endpoint cannot be used to
// probe which emails are registered. Unknown emails are logged and
// answered exactly like known ones.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.SendResetEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SendPasswordResetEmail(c.Request.Context(), req.Email); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			httputil.RespondWithError(c, err)
			return
		}
		log.Debug().Str("email", req.Email).Msg("password reset requested for unknown email")
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "if the email exists, a reset link was sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	token := c.GetHeader("Authorization")
	if err := h.service.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		if errors.Is(err, auth.ErrResetTokenUsed) {
			httputil.RespondWithStatusError(c, http.StatusUnauthorized, "reset token already used")
			return
		}
		httputil.RespondWithStatusError(c, http.StatusUnauthorized, "invalid reset token")
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "password updated"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusUnauthorized, "invalid user ID")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httputil.RespondWithStatusError(c, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "password updated"})
}

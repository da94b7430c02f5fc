package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"messageboard-backend/internal/domains/user"
	"messageboard-backend/internal/shared/middleware"
	"messageboard-backend/internal/shared/response"
)

// UserHandler handles HTTP requests for the user domain.
// Stateless - only holds dependencies.
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// Register handles POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err.Error())
		return
	}

	dto, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/users/"+dto.ID.String())
	response.Success(c, http.StatusCreated, dto)
}

// Login handles POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err.Error())
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Session cookie for the browser client; API clients use the bearer header.
	c.SetCookie("session", resp.AccessToken, int(time.Until(resp.ExpiresAt).Seconds()), "/", "", false, true)

	response.Success(c, http.StatusOK, resp)
}

// Logout handles POST /auth/logout. On failure the session stays valid and
// the error is reported; there is no partial logout state.
func (h *UserHandler) Logout(c *gin.Context) {
	tokenID, ok := middleware.TokenID(c)
	if !ok {
		response.Unauthorized(c, "no active session")
		return
	}
	expiresAt, _ := middleware.TokenExpiry(c)

	if err := h.service.Logout(c.Request.Context(), tokenID, expiresAt); err != nil {
		h.handleError(c, err)
		return
	}

	c.SetCookie("session", "", -1, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"redirect": "/login"})
}

// Me handles GET /auth/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "no active session")
		return
	}

	dto, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// handleError maps domain errors to HTTP status codes
func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, user.ErrUnauthorized):
		response.Unauthorized(c, err.Error())
	default:
		response.InternalServerError(c, err.Error())
	}
}

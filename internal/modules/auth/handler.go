package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/middleware"
	"pdfmark/internal/pkg/response"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler with injected service
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/refresh", h.Refresh)
	api.POST("/logout", h.Logout)
	api.POST("/reset_password", h.ResetPassword)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/me", h.GetMe)
}

// Register creates a new account.
// @Summary		Register a user
// @Tags		Auth
// @Param		request	body	RegisterRequest	true	"username, password, optional name, email and role"
// @Success		201	{object}		map[string]interface{} "Created user"
// @Failure		400	{object}		map[string]interface{} "Validation error"
// @Failure		409	{object}		map[string]interface{} "Username already taken"
// @Router		/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": toUserPublic(user)})
}

// Login exchanges credentials for an access and a refresh token.
// @Summary		Log in
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"username and password"
// @Success		200	{object}		map[string]interface{} "User and token pair"
// @Failure		401	{object}		map[string]interface{} "Invalid credentials"
// @Router		/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, tokens, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   toUserPublic(user),
		"tokens": tokens,
	})
}

// Refresh rotates a refresh token.
// @Summary		Refresh tokens
// @Tags		Auth
// @Param		request	body	RefreshRequest	true	"refresh_token"
// @Success		200	{object}		map[string]interface{} "New token pair"
// @Failure		401	{object}		map[string]interface{} "Invalid, expired or reused token"
// @Router		/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes a refresh token.
// @Summary		Log out
// @Tags		Auth
// @Param		request	body	RefreshRequest	true	"refresh_token"
// @Success		200	{object}		map[string]interface{} "Logged out"
// @Router		/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// ResetPassword replaces the password of an account.
// @Summary		Reset password
// @Tags		Auth
// @Param		request	body	ResetPasswordRequest	true	"username, current_password, new_password"
// @Success		200	{object}		map[string]interface{} "Password changed"
// @Failure		401	{object}		map[string]interface{} "Invalid credentials"
// @Router		/reset_password [POST]
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password changed"})
}

// GetMe returns the profile of the caller.
// @Summary		Current user
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}		map[string]interface{} "User profile"
// @Failure		401	{object}		map[string]interface{} "Unauthorized"
// @Router		/me [GET]
func (h *Handler) GetMe(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.service.GetCurrentUser(c.Request.Context(), id.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": toUserPublic(user)})
}

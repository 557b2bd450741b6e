package handler

import (
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler registration and login endpoints
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register creates a supplier account and signs it in
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, result)
}

// Login verifies credentials and returns a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, result)
}

// Me returns the account behind the presented token
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.GetCurrentUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, user)
}

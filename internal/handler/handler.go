package handler

import (
	"errors"

	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers handler aggregate
type Handlers struct {
	Auth     *AuthHandler
	Supplier *SupplierHandler
	Part     *PartHandler
	Document *DocumentHandler
	Excel    *ExcelHandler
	Audit    *AuditHandler
	Seed     *SeedHandler
}

// NewHandlers creates the handler aggregate
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(svc.Auth),
		Supplier: NewSupplierHandler(svc.Supplier),
		Part:     NewPartHandler(svc.Part),
		Document: NewDocumentHandler(svc.Document),
		Excel:    NewExcelHandler(svc.Excel),
		Audit:    NewAuditHandler(svc.Audit),
		Seed:     NewSeedHandler(svc.Seed),
	}
}

// Response common response envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error error response; the HTTP status is derived from the code
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 response
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 401 response
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 403 response
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 404 response
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 500 response
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID reads the authenticated user id from the context
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// getActor builds the service actor from the authenticated context
func getActor(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: GetUserID(c),
		Email:  c.GetString("user_email"),
		Role:   c.GetString("user_role"),
	}
}

// handleError maps service errors onto the envelope codes
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrDuplicateSKU),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrMissingSKUColumn),
		errors.Is(err, service.ErrBadDateFilter):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

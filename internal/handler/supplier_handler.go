package handler

import (
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

// SupplierHandler admin-side supplier management endpoints
type SupplierHandler struct {
	svc *service.SupplierService
}

// NewSupplierHandler creates a supplier handler
func NewSupplierHandler(svc *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

// List lists supplier accounts
func (h *SupplierHandler) List(c *gin.Context) {
	suppliers, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, suppliers)
}

// Get returns one supplier account
func (h *SupplierHandler) Get(c *gin.Context) {
	supplier, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, supplier)
}

// Create adds a supplier account
func (h *SupplierHandler) Create(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	supplier, err := h.svc.Create(c.Request.Context(), getActor(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, supplier)
}

// Update applies a partial supplier update
func (h *SupplierHandler) Update(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	supplier, err := h.svc.Update(c.Request.Context(), getActor(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, supplier)
}

// Delete removes a supplier account
func (h *SupplierHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), getActor(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"success": true})
}

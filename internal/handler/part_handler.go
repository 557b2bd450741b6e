package handler

import (
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

// PartHandler parent/child part endpoints
type PartHandler struct {
	svc *service.PartService
}

// NewPartHandler creates a part handler
func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// List lists parts visible to the caller
func (h *PartHandler) List(c *gin.Context) {
	parts, err := h.svc.List(c.Request.Context(), getActor(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, parts)
}

// Stats returns status counters for the caller's parts
func (h *PartHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), getActor(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, stats)
}

// Search substring-matches parts and children
func (h *PartHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		BadRequest(c, "Query parameter 'q' is required")
		return
	}

	parts, err := h.svc.Search(c.Request.Context(), getActor(c), q)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, parts)
}

// Get returns one part with its children
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.Get(c.Request.Context(), getActor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// Create adds a parent part
func (h *PartHandler) Create(c *gin.Context) {
	var req service.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part, err := h.svc.Create(c.Request.Context(), getActor(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, part)
}

// Update applies a partial parent update
func (h *PartHandler) Update(c *gin.Context) {
	var req service.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part, err := h.svc.Update(c.Request.Context(), getActor(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// Delete removes a parent part with its children
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), getActor(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"success": true})
}

// AddChild appends a child to a parent
func (h *PartHandler) AddChild(c *gin.Context) {
	var req service.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part, err := h.svc.AddChild(c.Request.Context(), getActor(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, part)
}

// UpdateChild applies a partial child update
func (h *PartHandler) UpdateChild(c *gin.Context) {
	var req service.UpdateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part, err := h.svc.UpdateChild(c.Request.Context(), getActor(c), c.Param("id"), c.Param("cid"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// DeleteChild removes one child
func (h *PartHandler) DeleteChild(c *gin.Context) {
	part, err := h.svc.DeleteChild(c.Request.Context(), getActor(c), c.Param("id"), c.Param("cid"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// DuplicateChild copies one child under the same parent
func (h *PartHandler) DuplicateChild(c *gin.Context) {
	part, err := h.svc.DuplicateChild(c.Request.Context(), getActor(c), c.Param("id"), c.Param("cid"))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, part)
}

package handler

import (
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

// SeedHandler development-only demo data endpoint
type SeedHandler struct {
	svc *service.SeedService
}

// NewSeedHandler creates a seed handler
func NewSeedHandler(svc *service.SeedService) *SeedHandler {
	return &SeedHandler{svc: svc}
}

// Seed creates demo accounts and sample parts
func (h *SeedHandler) Seed(c *gin.Context) {
	if err := h.svc.Seed(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"success": true})
}

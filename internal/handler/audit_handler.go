package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

// AuditHandler admin-side audit log endpoints
type AuditHandler struct {
	svc *service.AuditService
}

// NewAuditHandler creates an audit handler
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func auditQuery(c *gin.Context) service.AuditQuery {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	return service.AuditQuery{
		SupplierID: c.Query("supplier_id"),
		EntityType: c.Query("entity_type"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
		Limit:      limit,
	}
}

// List returns matching entries, newest first
func (h *AuditHandler) List(c *gin.Context) {
	logs, err := h.svc.List(c.Request.Context(), auditQuery(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, logs)
}

// Export downloads matching entries as a workbook
func (h *AuditHandler) Export(c *gin.Context) {
	buf, err := h.svc.Export(c.Request.Context(), auditQuery(c))
	if err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("audit_logs_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, xlsxContentType, buf.Bytes())
}

package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExcelHandler spreadsheet import/export endpoints
type ExcelHandler struct {
	svc *service.ExcelService
}

// NewExcelHandler creates an excel handler
func NewExcelHandler(svc *service.ExcelService) *ExcelHandler {
	return &ExcelHandler{svc: svc}
}

// Template downloads the import template workbook
func (h *ExcelHandler) Template(c *gin.Context) {
	buf, err := h.svc.Template()
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=parts_template.xlsx")
	c.Data(200, xlsxContentType, buf.Bytes())
}

// Import upserts parts from an uploaded workbook
func (h *ExcelHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "File is required: "+err.Error())
		return
	}
	defer file.Close()

	name := strings.ToLower(header.Filename)
	if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
		BadRequest(c, "Please upload an Excel file")
		return
	}

	result, err := h.svc.Import(c.Request.Context(), getActor(c), file)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, result)
}

// Export downloads the caller's parts as a workbook
func (h *ExcelHandler) Export(c *gin.Context) {
	buf, err := h.svc.Export(c.Request.Context(), getActor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("parts_export_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, xlsxContentType, buf.Bytes())
}

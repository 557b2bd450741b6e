package handler

import (
	"encoding/json"
	"io"

	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler document endpoints
type DocumentHandler struct {
	svc *service.DocumentService
}

// NewDocumentHandler creates a document handler
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// List lists documents visible to the caller
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), getActor(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, docs)
}

// Get returns one document
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), getActor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, doc)
}

// Upload stores a file and binds it to the listed parts. Reference lists
// arrive as JSON-encoded form fields beside the file part.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "File is required: "+err.Error())
		return
	}
	defer file.Close()

	req := &service.UploadDocumentRequest{}
	if raw := c.PostForm("parent_part_ids"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.ParentPartIDs); err != nil {
			BadRequest(c, "Invalid parent_part_ids: "+err.Error())
			return
		}
	}
	if raw := c.PostForm("child_part_ids"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.ChildPartIDs); err != nil {
			BadRequest(c, "Invalid child_part_ids: "+err.Error())
			return
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.svc.Upload(c.Request.Context(), getActor(c), req, file, header.Filename, header.Size, contentType)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, result)
}

// Update renames a document and reconciles its part references
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), getActor(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, doc)
}

// Delete removes a document and scrubs its references
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), getActor(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"success": true})
}

// Download streams the stored binary
func (h *DocumentHandler) Download(c *gin.Context) {
	object, doc, err := h.svc.Download(c.Request.Context(), getActor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer object.Close()

	c.Header("Content-Disposition", "attachment; filename="+doc.OriginalName)
	c.Header("Content-Type", doc.FileType)
	if _, err := io.Copy(c.Writer, object); err != nil {
		// headers already sent, nothing left to report
		return
	}
}

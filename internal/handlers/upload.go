package handlers

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/attachments"
)

// UploadHandler stores attachment blobs ahead of message creation. A failed
// upload produces no descriptor, so no message can reference it.
type UploadHandler struct {
	store attachments.Store
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(store attachments.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload accepts a multipart file and returns its attachment descriptor.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()

	attachment, err := h.store.Save(c.Request.Context(), fileHeader.Filename, fileHeader.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
}

// Serve streams a stored attachment back to the client.
func (h *UploadHandler) Serve(c *gin.Context) {
	name := path.Base(c.Param("name"))

	f, mime, err := h.store.Open(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", mime)
	http.ServeContent(c.Writer, c.Request, name, time.Time{}, f)
}

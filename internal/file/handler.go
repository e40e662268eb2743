package file

import (
	"collaborative-docs-backend/internal/errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Upload(c *gin.Context) {
	userID, _ := c.Get("user_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.BadRequest("Please select a file to upload", err))
		return
	}
	if fileHeader.Size == 0 {
		c.Error(errors.BadRequest("File cannot be empty", nil))
		return
	}

	var documentID *uint64
	if raw := c.PostForm("document_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.Error(errors.BadRequest("Invalid document id", err))
			return
		}
		documentID = &id
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	record, err := h.service.Upload(
		c.Request.Context(),
		userID.(uint64),
		src,
		fileHeader.Size,
		fileHeader.Filename,
		contentType,
		documentID,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *Handler) Download(c *gin.Context) {
	fileName := c.Param("fileName")

	record, blob, err := h.service.Download(c.Request.Context(), fileName)
	if err != nil {
		c.Error(err)
		return
	}
	defer blob.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.OriginalName))
	c.Header("Content-Type", record.FileType)
	if record.FileSize > 0 {
		c.Header("Content-Length", strconv.FormatInt(record.FileSize, 10))
	}

	if _, err := io.Copy(c.Writer, blob); err != nil {
		// headers already sent, nothing to do but log via the error chain
		c.Error(err)
	}
}

func (h *Handler) ListMyFiles(c *gin.Context) {
	userID, _ := c.Get("user_id")

	files, err := h.service.ListUserFiles(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, files)
}

func (h *Handler) ListDocumentFiles(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("documentId"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	userID, _ := c.Get("user_id")

	files, err := h.service.ListDocumentFiles(c.Request.Context(), docID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, files)
}

func (h *Handler) Delete(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("fileId"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.Delete(c.Request.Context(), fileID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

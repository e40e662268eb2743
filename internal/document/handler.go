package document

import (
	"collaborative-docs-backend/internal/domain"
	"collaborative-docs-backend/internal/errors"
	"collaborative-docs-backend/internal/utils"
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

// userIDFromContext returns the authenticated user id, AnonymousUser when
// the request came through the optional auth middleware without a token.
func userIDFromContext(c *gin.Context) uint64 {
	userID, exists := c.Get("user_id")
	if !exists {
		return AnonymousUser
	}
	return userID.(uint64)
}

type CreateDocumentRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=255"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateDocumentRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	doc := &domain.Document{
		Title:    form.Title,
		Content:  form.Content,
		IsPublic: form.IsPublic,
	}

	if err := h.service.CreateDocument(c.Request.Context(), userID.(uint64), doc); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) ShowDocument(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), docID, userIDFromContext(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

type UpdateDocumentRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=255"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public"`
}

func (h *Handler) Update(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	var form UpdateDocumentRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	doc, err := h.service.UpdateDocument(
		c.Request.Context(),
		docID,
		userID.(uint64),
		form.Title,
		form.Content,
		form.IsPublic,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.DeleteDocument(c.Request.Context(), docID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ShowUserDocuments(c *gin.Context) {
	userID, _ := c.Get("user_id")

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.GetUserDocuments(c.Request.Context(), userID.(uint64), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowPublicDocuments(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.GetPublicDocuments(c.Request.Context(), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) SearchDocuments(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		c.Error(errors.BadRequest("keyword is required", nil))
		return
	}

	docs, err := h.service.SearchDocuments(c.Request.Context(), keyword, userIDFromContext(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, docs)
}

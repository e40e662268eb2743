package collab

import (
	"collaborative-docs-backend/internal/errors"
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

func pathID(c *gin.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func (h *Handler) ListCollaborators(c *gin.Context) {
	docID, err := pathID(c, "id")
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	requesterID, _ := c.Get("user_id")

	result, err := h.service.ListCollaborators(c.Request.Context(), docID, requesterID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListActivities(c *gin.Context) {
	docID, err := pathID(c, "id")
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	requesterID, _ := c.Get("user_id")

	result, err := h.service.ListActivities(c.Request.Context(), docID, requesterID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListVersions(c *gin.Context) {
	docID, err := pathID(c, "id")
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	requesterID, _ := c.Get("user_id")

	result, err := h.service.ListVersions(c.Request.Context(), docID, requesterID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type InviteCollaboratorRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Permission string `json:"permission" binding:"required,oneof=read edit"`
}

func (h *Handler) InviteCollaborator(c *gin.Context) {
	docID, err := pathID(c, "id")
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	var req InviteCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	requesterID, _ := c.Get("user_id")

	result, err := h.service.InviteCollaborator(
		c.Request.Context(),
		docID,
		requesterID.(uint64),
		req.Email,
		req.Permission,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) RestoreVersion(c *gin.Context) {
	docID, err := pathID(c, "id")
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	versionID, err := pathID(c, "versionId")
	if err != nil {
		c.Error(errors.BadRequest("Invalid version id", err))
		return
	}

	requesterID, _ := c.Get("user_id")

	if err := h.service.RestoreVersion(c.Request.Context(), docID, versionID, requesterID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Version restored successfully"})
}

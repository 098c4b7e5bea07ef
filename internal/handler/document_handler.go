package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/larkvine/docrag/internal/pkg/errcode"
	"github.com/larkvine/docrag/internal/pkg/response"
	"github.com/larkvine/docrag/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	page, err := h.documents.List(c.Request.Context(), offset, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, errcode.ErrInvalid, "document id is required")
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, errcode.ErrInvalid, "document id is required")
		return
	}
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/larkvine/docrag/internal/pkg/errcode"
	"github.com/larkvine/docrag/internal/pkg/response"
	"github.com/larkvine/docrag/internal/service"
)

type QueryHandler struct {
	query *service.QueryService
}

func NewQueryHandler(query *service.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

type queryRequest struct {
	Query     string  `json:"query"`
	Threshold float32 `json:"threshold"`
	Count     int     `json:"count"`
}

// Search returns ranked chunks with citations and no completion.
func (h *QueryHandler) Search(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	res, err := h.query.Search(c.Request.Context(), req.Query, req.Threshold, req.Count)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

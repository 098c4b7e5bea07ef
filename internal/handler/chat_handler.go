package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/pkg/errcode"
	"github.com/larkvine/docrag/internal/pkg/response"
	"github.com/larkvine/docrag/internal/service"
)

type ChatHandler struct {
	query *service.QueryService
}

func NewChatHandler(query *service.QueryService) *ChatHandler {
	return &ChatHandler{query: query}
}

type chatRequest struct {
	Query     string           `json:"query"`
	History   []model.ChatTurn `json:"history"`
	Threshold float32          `json:"threshold"`
	Count     int              `json:"count"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.query.Chat(c.Request.Context(), req.Query, req.History, req.Threshold, req.Count)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

// ChatStream answers over SSE: token events while the model
// generates, one citations event at the end, then done.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	emit := func(token string) error {
		c.SSEvent("token", token)
		c.Writer.Flush()
		return nil
	}
	citations, err := h.query.ChatStream(c.Request.Context(), req.Query, req.History, req.Threshold, req.Count, emit)
	if err != nil {
		// Headers are already out; surface the failure as an event.
		logutil.GetLogger(c.Request.Context()).Error("chat stream failed", zap.Error(err))
		c.SSEvent("error", "generation failed")
		c.Writer.Flush()
		return
	}
	if len(citations) > 0 {
		c.SSEvent("citations", citations)
	}
	c.SSEvent("done", "")
	c.Writer.Flush()
}

func (h *ChatHandler) bind(c *gin.Context) (*chatRequest, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return nil, false
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return nil, false
	}
	return &req, true
}

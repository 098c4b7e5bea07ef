package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/middleware"
	"github.com/larkvine/docrag/internal/pkg/errcode"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
	"github.com/larkvine/docrag/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrFileTooLarge):
		response.Error(c, errcode.ErrFileTooLarge, err.Error())
	case errors.Is(err, appErr.ErrUnsupportedFormat):
		response.Error(c, errcode.ErrUnsupportedFormat, "unsupported file format")
	case errors.Is(err, appErr.ErrExtractionFailed):
		response.Error(c, errcode.ErrExtractionFailed, "no text could be extracted")
	case errors.Is(err, appErr.ErrEmbeddingService):
		response.Error(c, errcode.ErrEmbeddingFailed, "embedding service error")
	case errors.Is(err, appErr.ErrStoreUnavailable):
		response.Error(c, errcode.ErrStoreUnavailable, "vector store unavailable")
	case errors.Is(err, appErr.ErrAIUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

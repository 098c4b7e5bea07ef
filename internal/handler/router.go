package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/larkvine/docrag/internal/middleware"
)

type RouterDeps struct {
	Ingest      *IngestHandler
	Query       *QueryHandler
	Chat        *ChatHandler
	Documents   *DocumentHandler
	IngestLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.RequestID())

	ingestGroup := api.Group("")
	ingestGroup.Use(middleware.RateLimit(deps.IngestLimit))
	ingestGroup.POST("/ingest", deps.Ingest.Text)
	ingestGroup.POST("/ingest/file", deps.Ingest.File)

	api.POST("/query", deps.Query.Search)
	api.POST("/chat", deps.Chat.Chat)
	api.POST("/chat/stream", deps.Chat.ChatStream)

	api.GET("/documents", deps.Documents.List)
	api.GET("/documents/:id", deps.Documents.Get)
	api.DELETE("/documents/:id", deps.Documents.Delete)
}

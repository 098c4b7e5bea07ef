package handler_test

import (
	"context"
	"hash/fnv"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/chunker"
	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/extract"
	"github.com/larkvine/docrag/internal/filestore"
	"github.com/larkvine/docrag/internal/handler"
	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/retrieval"
	"github.com/larkvine/docrag/internal/service"
	"github.com/larkvine/docrag/internal/store"
	"github.com/stretchr/testify/require"
)

const testDim = 8

// hashEmbedder maps text to a deterministic unit-ish vector so
// identical text always lands on the same embedding.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float32, testDim)
	// First component dominates so any two texts stay positively
	// correlated and clear the search threshold.
	vec[0] = 1
	for i := 1; i < testDim; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%100) / 1000
	}
	return vec, nil
}

func (hashEmbedder) ModelName() string {
	return "test-embed"
}

type scriptedCompleter struct{}

func (scriptedCompleter) Complete(ctx context.Context, system string, messages []ai.Message) (string, error) {
	return "scripted answer [Source 1]", nil
}

func (scriptedCompleter) CompleteStream(ctx context.Context, system string, messages []ai.Message, emit func(token string) error) error {
	for _, token := range []string{"scripted ", "answer"} {
		if err := emit(token); err != nil {
			return err
		}
	}
	return nil
}

type memDocumentMeta struct {
	mu      sync.Mutex
	created []*model.Document
}

func (m *memDocumentMeta) Create(ctx context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, doc)
	return nil
}

func (m *memDocumentMeta) UpdateChunkCount(ctx context.Context, id string, count int) error {
	return nil
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	retrievalCfg := config.RetrievalConfig{
		ChunkSize:       2000,
		ChunkOverlap:    200,
		EmbeddingDim:    testDim,
		Threshold:       0.7,
		TopK:            5,
		PreviewLen:      100,
		DedupPrefixLen:  100,
		EmbedBatchLimit: 4,
	}
	ingestCfg := config.IngestConfig{MaxTextBytes: 1 << 20, MaxFileBytes: 10 << 20}

	blobs, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	manager := ai.NewManager(hashEmbedder{}, scriptedCompleter{}, ai.ManagerConfig{
		TimeoutSeconds: 5,
		MaxRetries:     1,
		BatchLimit:     4,
	})
	vectors := store.NewMemoryStore(testDim)
	orchestrator := retrieval.NewOrchestrator(manager, vectors, retrievalCfg)

	ingestService := service.NewIngestService(&memDocumentMeta{}, blobs, extract.NewEngine(config.ExtractConfig{}),
		chunker.New(retrievalCfg.ChunkSize, retrievalCfg.ChunkOverlap), manager, vectors, ingestCfg)
	queryService := service.NewQueryService(orchestrator, manager)

	deps := handler.RouterDeps{
		Ingest:      handler.NewIngestHandler(ingestService, ingestCfg),
		Query:       handler.NewQueryHandler(queryService),
		Chat:        handler.NewChatHandler(queryService),
		Documents:   handler.NewDocumentHandler(service.NewDocumentService(nil, blobs, vectors)),
		IngestLimit: 0, // disabled so back-to-back test requests pass
	}

	engine := gin.New()
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api, deps)
	return engine
}

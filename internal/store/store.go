package store

import (
	"context"

	"github.com/larkvine/docrag/internal/model"
)

// VectorStore persists chunks with their embeddings and answers
// similarity queries. Put is an idempotent upsert keyed by chunk id;
// results come back ordered by descending similarity, filtered to
// score >= threshold and truncated to count.
type VectorStore interface {
	Put(ctx context.Context, chunk *model.Chunk) error
	Search(ctx context.Context, queryVec []float32, threshold float32, count int) ([]model.SearchResult, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	CountByDocument(ctx context.Context, documentID string) (int, error)
	// OrdinalsByDocument lists the ordinals already stored for a
	// document, ascending, so repair can find the gaps.
	OrdinalsByDocument(ctx context.Context, documentID string) ([]int, error)
}

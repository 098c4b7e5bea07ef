package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/larkvine/docrag/internal/model"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
)

// MemoryStore is the exact-search backend: cosine similarity over
// every stored vector. It backs tests and serves as the fallback when
// the indexed path is unavailable; for small datasets its ranking
// matches the indexed path.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]*model.Chunk
	dim    int
}

func NewMemoryStore(dim int) *MemoryStore {
	return &MemoryStore{
		chunks: make(map[string]*model.Chunk),
		dim:    dim,
	}
}

func (s *MemoryStore) Put(ctx context.Context, chunk *model.Chunk) error {
	if chunk == nil || chunk.ID == "" {
		return appErr.ErrInvalid
	}
	if s.dim > 0 && len(chunk.Embedding) != s.dim {
		return fmt.Errorf("%w: embedding length %d, store dimensionality %d", appErr.ErrInvalid, len(chunk.Embedding), s.dim)
	}
	cp := *chunk
	cp.Embedding = append([]float32(nil), chunk.Embedding...)
	s.mu.Lock()
	s.chunks[chunk.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, queryVec []float32, threshold float32, count int) ([]model.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]model.SearchResult, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		score := CosineSimilarity(queryVec, chunk.Embedding)
		if score < threshold {
			continue
		}
		results = append(results, model.SearchResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Content:    chunk.Content,
			Metadata:   chunk.Metadata,
			Similarity: score,
		})
	}
	sortResults(results)
	if count > 0 && len(results) > count {
		results = results[:count]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

func (s *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			delete(s.chunks, id)
		}
	}
	return nil
}

func (s *MemoryStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) OrdinalsByDocument(ctx context.Context, documentID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ordinals []int
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			ordinals = append(ordinals, chunk.Ordinal)
		}
	}
	sort.Ints(ordinals)
	return ordinals, nil
}

// sortResults orders by descending similarity with chunk id as the
// tie-break so both store backends rank identically.
func sortResults(results []model.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/store"
)

// NoInformationFound is returned in place of citations when nothing
// passes the similarity threshold. Queries with no matches degrade to
// this message, they do not fail.
const NoInformationFound = "No relevant information found in the knowledge base."

type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// Result is the context bundle for one query.
type Result struct {
	Results   []model.SearchResult `json:"results"`
	Citations []model.Citation     `json:"citations"`
	Message   string               `json:"message,omitempty"`
}

// Orchestrator turns a query into an embedding, searches the vector
// store, deduplicates and ranks, and assigns citations.
type Orchestrator struct {
	embedder Embedder
	store    store.VectorStore
	cfg      config.RetrievalConfig
}

func NewOrchestrator(embedder Embedder, vs store.VectorStore, cfg config.RetrievalConfig) *Orchestrator {
	return &Orchestrator{embedder: embedder, store: vs, cfg: cfg}
}

// Retrieve runs the query path. threshold <= 0 and count <= 0 fall
// back to configured defaults.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, threshold float32, count int) (*Result, error) {
	if threshold <= 0 {
		threshold = o.cfg.Threshold
	}
	if count <= 0 {
		count = o.cfg.TopK
	}
	queryVec, err := o.embedder.Embed(ctx, query, ai.TaskQuery)
	if err != nil {
		return nil, err
	}
	// Over-fetch so dedup does not leave the caller short.
	raw, err := o.store.Search(ctx, queryVec, threshold, count*2)
	if err != nil {
		return nil, err
	}
	results := o.dedup(raw)
	if len(results) > count {
		results = results[:count]
	}
	if len(results) == 0 {
		logutil.GetLogger(ctx).Info("no results above threshold",
			zap.Float32("threshold", threshold), zap.Int("candidates", len(raw)))
		return &Result{Results: []model.SearchResult{}, Message: NoInformationFound}, nil
	}

	citations := make([]model.Citation, 0, len(results))
	for i := range results {
		results[i].Rank = i + 1
		citations = append(citations, model.Citation{
			ID:         i + 1,
			Source:     results[i].Metadata.Source,
			Section:    results[i].Metadata.Section,
			ChunkIndex: results[i].Metadata.ChunkIndex,
			Total:      results[i].Metadata.TotalChunks,
			Preview:    truncatePreview(results[i].Content, o.cfg.PreviewLen),
			Similarity: results[i].Similarity,
		})
	}
	return &Result{Results: results, Citations: citations}, nil
}

// dedup drops results that share a source and near-identical leading
// content. The prefix length is a tunable policy, not a contract.
func (o *Orchestrator) dedup(results []model.SearchResult) []model.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		key := dedupKey(r.Metadata.Source, r.Content, o.cfg.DedupPrefixLen)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dedupKey(source, content string, prefixLen int) string {
	prefix := content
	if prefixLen > 0 && len(prefix) > prefixLen {
		prefix = prefix[:prefixLen]
	}
	sum := sha256.Sum256([]byte(source + "\x00" + prefix))
	return hex.EncodeToString(sum[:])
}

func truncatePreview(content string, limit int) string {
	if limit <= 0 {
		limit = 100
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

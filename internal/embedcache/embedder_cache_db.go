package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/repo"
)

// WrapDB memoizes embeddings in the embedding_cache table so they
// survive restarts. Cache failures are logged and the provider is
// called anyway; the cache must never fail an embed.
func WrapDB(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	hash := contentHash(text)
	cached, ok, err := d.repo.Get(ctx, d.next.ModelName(), taskType, hash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache lookup failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}
	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	item := &model.EmbeddingCache{
		ModelName:   d.next.ModelName(),
		TaskType:    taskType,
		ContentHash: hash,
		Embedding:   res,
		Ctime:       time.Now().UnixMilli(),
	}
	if err := d.repo.Save(ctx, item); err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache save failed", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}

func contentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

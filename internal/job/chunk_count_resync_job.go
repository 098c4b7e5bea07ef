package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/repo"
)

// ChunkCountResyncJob repairs documents whose chunk_count drifted
// from the rows actually in the chunks table, e.g. after a partial
// ingest or a crashed delete.
type ChunkCountResyncJob struct {
	docs      *repo.DocumentRepo
	batchSize int
}

func NewChunkCountResyncJob(docs *repo.DocumentRepo, batchSize int) *ChunkCountResyncJob {
	return &ChunkCountResyncJob{docs: docs, batchSize: batchSize}
}

func (j *ChunkCountResyncJob) Name() string {
	return "chunk_count_resync"
}

func (j *ChunkCountResyncJob) Run(ctx context.Context) error {
	if j.docs == nil {
		return nil
	}
	batchSize := j.batchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	stale, err := j.docs.StaleChunkCounts(ctx, batchSize)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for id, actual := range stale {
		if err := j.docs.UpdateChunkCount(ctx, id, actual); err != nil {
			logger.Error("chunk count repair failed", zap.String("document_id", id), zap.Error(err))
			continue
		}
		logger.Info("chunk count repaired", zap.String("document_id", id), zap.Int("actual", actual))
	}
	return nil
}

package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/repo"
	"github.com/larkvine/docrag/internal/service"
)

// ReembedJob restores documents left short of chunks by a partial
// ingest: the stored blob is re-extracted and only the missing
// ordinals are embedded and stored again.
type ReembedJob struct {
	docs      *repo.DocumentRepo
	ingest    *service.IngestService
	batchSize int
}

func NewReembedJob(docs *repo.DocumentRepo, ingest *service.IngestService, batchSize int) *ReembedJob {
	return &ReembedJob{docs: docs, ingest: ingest, batchSize: batchSize}
}

func (j *ReembedJob) Name() string {
	return "partial_ingest_reembed"
}

func (j *ReembedJob) Run(ctx context.Context) error {
	if j.docs == nil || j.ingest == nil {
		return nil
	}
	batchSize := j.batchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	docs, err := j.docs.PartiallyIngested(ctx, batchSize)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for i := range docs {
		doc := &docs[i]
		restored, err := j.ingest.RepairDocument(ctx, doc)
		if err != nil {
			logger.Error("partial ingest repair failed",
				zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		logger.Info("partial ingest repaired",
			zap.String("document_id", doc.ID), zap.Int("chunks_restored", restored))
	}
	return nil
}

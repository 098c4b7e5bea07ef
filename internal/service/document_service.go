package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/filestore"
	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/repo"
	"github.com/larkvine/docrag/internal/store"
)

type DocumentService struct {
	docs    *repo.DocumentRepo
	blobs   filestore.Store
	vectors store.VectorStore
}

func NewDocumentService(docs *repo.DocumentRepo, blobs filestore.Store, vectors store.VectorStore) *DocumentService {
	return &DocumentService{docs: docs, blobs: blobs, vectors: vectors}
}

func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.docs.GetByID(ctx, id)
}

type DocumentPage struct {
	Items []model.Document `json:"items"`
	Total int64            `json:"total"`
}

func (s *DocumentService) List(ctx context.Context, offset, limit int) (*DocumentPage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.docs.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.docs.Count(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Document{}
	}
	return &DocumentPage{Items: items, Total: total}, nil
}

// Delete removes the document record, its chunks, and the stored
// blob. Blob cleanup is best effort; a dangling blob is preferable to
// a half-deleted document.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", id))
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	if doc.StorageKey != "" {
		if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
			logger.Warn("blob cleanup failed", zap.String("storage_key", doc.StorageKey), zap.Error(err))
		}
	}
	logger.Info("document deleted", zap.Int("chunks", doc.ChunkCount))
	return nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/chunker"
	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/extract"
	"github.com/larkvine/docrag/internal/filestore"
	"github.com/larkvine/docrag/internal/model"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
	"github.com/larkvine/docrag/internal/store"
)

// DocumentMeta is the metadata persistence the ingest pipeline needs.
type DocumentMeta interface {
	Create(ctx context.Context, doc *model.Document) error
	UpdateChunkCount(ctx context.Context, id string, count int) error
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

type IngestRequest struct {
	OwnerID  string
	Filename string
	FileType model.FileType
	Section  string
	Tags     map[string]string
}

type IngestResult struct {
	DocumentID      string `json:"document_id"`
	ChunksProcessed int    `json:"chunks_processed"`
}

type IngestService struct {
	docs      DocumentMeta
	blobs     filestore.Store
	extractor *extract.Engine
	chunker   *chunker.Chunker
	embedder  BatchEmbedder
	vectors   store.VectorStore
	cfg       config.IngestConfig
}

func NewIngestService(docs DocumentMeta, blobs filestore.Store, extractor *extract.Engine,
	ck *chunker.Chunker, embedder BatchEmbedder, vectors store.VectorStore, cfg config.IngestConfig) *IngestService {
	return &IngestService{
		docs:      docs,
		blobs:     blobs,
		extractor: extractor,
		chunker:   ck,
		embedder:  embedder,
		vectors:   vectors,
		cfg:       cfg,
	}
}

// IngestText ingests raw text without a backing file.
func (s *IngestService) IngestText(ctx context.Context, req *IngestRequest, content string) (*IngestResult, error) {
	if s.cfg.MaxTextBytes > 0 && int64(len(content)) > s.cfg.MaxTextBytes {
		return nil, fmt.Errorf("%w: text payload %d bytes", appErr.ErrFileTooLarge, len(content))
	}
	if req.FileType == "" {
		req.FileType = model.FileTypeTxt
	}
	return s.ingest(ctx, req, []byte(content), "")
}

// IngestFile stores the uploaded bytes, extracts text and runs the
// chunk/embed/store pipeline.
func (s *IngestService) IngestFile(ctx context.Context, req *IngestRequest, r io.ReadSeeker, size int64) (*IngestResult, error) {
	if s.cfg.MaxFileBytes > 0 && size > s.cfg.MaxFileBytes {
		return nil, fmt.Errorf("%w: file %d bytes", appErr.ErrFileTooLarge, size)
	}
	var src io.Reader = r
	if s.cfg.MaxFileBytes > 0 {
		src = io.LimitReader(r, s.cfg.MaxFileBytes+1)
	}
	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxFileBytes > 0 && int64(len(buf)) > s.cfg.MaxFileBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrFileTooLarge, s.cfg.MaxFileBytes)
	}
	docID := newDocumentID()
	storageKey := docID + "." + string(req.FileType)
	if err := s.blobs.Save(ctx, storageKey, bytes.NewReader(buf), int64(len(buf))); err != nil {
		return nil, err
	}
	return s.ingestWithID(ctx, req, buf, docID, storageKey)
}

func (s *IngestService) ingest(ctx context.Context, req *IngestRequest, buf []byte, storageKey string) (*IngestResult, error) {
	return s.ingestWithID(ctx, req, buf, newDocumentID(), storageKey)
}

func (s *IngestService) ingestWithID(ctx context.Context, req *IngestRequest, buf []byte, docID, storageKey string) (*IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("document_id", docID),
		zap.String("filename", req.Filename),
		zap.String("file_type", string(req.FileType)))

	text, err := s.extractor.Extract(ctx, buf, req.FileType)
	if err != nil {
		logger.Error("text extraction failed", zap.Error(err))
		return nil, err
	}
	pieces := s.chunker.Split(ctx, text)
	if len(pieces) == 0 {
		return nil, appErr.ErrExtractionFailed
	}
	texts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		texts = append(texts, p.Text)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts, ai.TaskDocument)
	if err != nil {
		logger.Error("batch embedding failed", zap.Error(err))
		return nil, err
	}

	source := req.Filename
	if source == "" {
		source = "inline text"
	}
	now := time.Now().UnixMilli()

	// The document row is written before its chunks so a crash
	// mid-store leaves a repairable record instead of orphaned
	// vectors; RepairDocument closes the gap later.
	doc := &model.Document{
		ID:         docID,
		OwnerID:    req.OwnerID,
		Filename:   req.Filename,
		FileType:   string(req.FileType),
		StorageKey: storageKey,
		ChunkCount: len(pieces),
		Ctime:      now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		logger.Error("document record failed", zap.Error(err))
		return nil, err
	}

	for i, p := range pieces {
		chunk := &model.Chunk{
			ID:         chunkID(docID, p.Ordinal),
			DocumentID: docID,
			Ordinal:    p.Ordinal,
			Total:      p.Total,
			Content:    p.Text,
			Metadata: model.ChunkMetadata{
				Source:      source,
				Section:     req.Section,
				ChunkIndex:  p.Ordinal,
				TotalChunks: p.Total,
				Tags:        req.Tags,
			},
			Embedding: vectors[i],
			Ctime:     now,
		}
		if err := s.vectors.Put(ctx, chunk); err != nil {
			logger.Error("chunk store failed", zap.Error(err), zap.Int("ordinal", p.Ordinal))
			return nil, err
		}
	}

	logger.Info("document ingested", zap.Int("chunks", len(pieces)))
	return &IngestResult{DocumentID: docID, ChunksProcessed: len(pieces)}, nil
}

// RepairDocument re-stores the chunks a document is missing after a
// partial ingest. The original bytes are re-read from the file store
// and only the absent ordinals are embedded again; deterministic chunk
// ids make the repair idempotent. Inline-text documents carry no blob
// and cannot be repaired here. Returns the number of chunks restored.
func (s *IngestService) RepairDocument(ctx context.Context, doc *model.Document) (int, error) {
	if doc == nil || doc.StorageKey == "" {
		return 0, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("document_id", doc.ID),
		zap.String("storage_key", doc.StorageKey))

	rc, err := s.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("open stored blob: %w", err)
	}
	buf, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return 0, err
	}

	text, err := s.extractor.Extract(ctx, buf, model.FileType(doc.FileType))
	if err != nil {
		return 0, err
	}
	pieces := s.chunker.Split(ctx, text)
	if len(pieces) == 0 {
		return 0, appErr.ErrExtractionFailed
	}

	present, err := s.vectors.OrdinalsByDocument(ctx, doc.ID)
	if err != nil {
		return 0, err
	}
	have := make(map[int]struct{}, len(present))
	for _, ordinal := range present {
		have[ordinal] = struct{}{}
	}
	var missing []chunker.Piece
	for _, p := range pieces {
		if _, ok := have[p.Ordinal]; !ok {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		texts := make([]string, 0, len(missing))
		for _, p := range missing {
			texts = append(texts, p.Text)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts, ai.TaskDocument)
		if err != nil {
			return 0, err
		}
		now := time.Now().UnixMilli()
		for i, p := range missing {
			chunk := &model.Chunk{
				ID:         chunkID(doc.ID, p.Ordinal),
				DocumentID: doc.ID,
				Ordinal:    p.Ordinal,
				Total:      p.Total,
				Content:    p.Text,
				Metadata: model.ChunkMetadata{
					Source:      doc.Filename,
					ChunkIndex:  p.Ordinal,
					TotalChunks: p.Total,
				},
				Embedding: vectors[i],
				Ctime:     now,
			}
			if err := s.vectors.Put(ctx, chunk); err != nil {
				return 0, fmt.Errorf("restore chunk %d: %w", p.Ordinal, err)
			}
		}
	}

	if doc.ChunkCount != len(pieces) {
		if err := s.docs.UpdateChunkCount(ctx, doc.ID, len(pieces)); err != nil {
			return len(missing), err
		}
	}
	logger.Info("document repaired",
		zap.Int("chunks_restored", len(missing)),
		zap.Int("chunks_total", len(pieces)))
	return len(missing), nil
}

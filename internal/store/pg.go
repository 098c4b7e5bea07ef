package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/model"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
)

// PgStore keeps chunks in postgres with a pgvector column and an
// ivfflat index for approximate search. When the indexed path fails
// it falls back to an exact scan that re-parses stored vectors, so a
// row persisted as text by an older writer still participates.
type PgStore struct {
	db         *sql.DB
	dim        int
	forceExact bool
}

func NewPgStore(db *sql.DB, dim int) *PgStore {
	return &PgStore{db: db, dim: dim}
}

// WithExactSearch forces the exact scan path. Used under test to
// verify both paths agree on ranking.
func (s *PgStore) WithExactSearch() *PgStore {
	return &PgStore{db: s.db, dim: s.dim, forceExact: true}
}

func (s *PgStore) Put(ctx context.Context, chunk *model.Chunk) error {
	if chunk == nil || chunk.ID == "" {
		return appErr.ErrInvalid
	}
	if s.dim > 0 && len(chunk.Embedding) != s.dim {
		return fmt.Errorf("%w: embedding length %d, store dimensionality %d", appErr.ErrInvalid, len(chunk.Embedding), s.dim)
	}
	meta, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO chunks (id, document_id, ordinal, total, content, metadata, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			ordinal = EXCLUDED.ordinal,
			total = EXCLUDED.total,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err = s.db.ExecContext(ctx, query,
		chunk.ID,
		chunk.DocumentID,
		chunk.Ordinal,
		chunk.Total,
		chunk.Content,
		meta,
		pgvector.NewVector(chunk.Embedding),
		chunk.Ctime,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PgStore) Search(ctx context.Context, queryVec []float32, threshold float32, count int) ([]model.SearchResult, error) {
	if s.forceExact {
		return s.searchExact(ctx, queryVec, threshold, count)
	}
	results, err := s.searchIndexed(ctx, queryVec, threshold, count)
	if err != nil {
		logutil.GetLogger(ctx).Warn("indexed search unavailable, falling back to exact scan", zap.Error(err))
		return s.searchExact(ctx, queryVec, threshold, count)
	}
	return results, nil
}

func (s *PgStore) searchIndexed(ctx context.Context, queryVec []float32, threshold float32, count int) ([]model.SearchResult, error) {
	const query = `
		SELECT id, document_id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1, id
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(queryVec), threshold, count)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.SearchResult
	for rows.Next() {
		var r model.SearchResult
		var meta []byte
		var score float64
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Content, &meta, &score); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			logutil.GetLogger(ctx).Warn("bad chunk metadata", zap.String("chunk_id", r.ChunkID), zap.Error(err))
		}
		r.Similarity = float32(score)
		r.Rank = len(results) + 1
		results = append(results, r)
	}
	return results, rows.Err()
}

// searchExact loads every stored vector as text and heals it before
// scoring. A row that cannot be parsed, or whose length disagrees
// with the store dimensionality, is a data-integrity fault: logged
// and excluded, never surfaced as a query failure.
func (s *PgStore) searchExact(ctx context.Context, queryVec []float32, threshold float32, count int) ([]model.SearchResult, error) {
	const query = `
		SELECT id, document_id, content, metadata, embedding::text
		FROM chunks
		WHERE embedding IS NOT NULL
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	logger := logutil.GetLogger(ctx)
	var results []model.SearchResult
	for rows.Next() {
		var r model.SearchResult
		var meta []byte
		var rawVec string
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Content, &meta, &rawVec); err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
		}
		vec, err := ParseVector(rawVec, s.dim)
		if err != nil {
			logger.Error("data integrity fault: unreadable stored vector",
				zap.String("chunk_id", r.ChunkID), zap.Error(err))
			continue
		}
		score := CosineSimilarity(queryVec, vec)
		if score < threshold {
			continue
		}
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			logger.Warn("bad chunk metadata", zap.String("chunk_id", r.ChunkID), zap.Error(err))
		}
		r.Similarity = score
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
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

func (s *PgStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PgStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
	}
	return n, nil
}

func (s *PgStore) OrdinalsByDocument(ctx context.Context, documentID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ordinal FROM chunks WHERE document_id = $1 ORDER BY ordinal`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var ordinals []int
	for rows.Next() {
		var ordinal int
		if err := rows.Scan(&ordinal); err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
		}
		ordinals = append(ordinals, ordinal)
	}
	return ordinals, rows.Err()
}

// SweepIntegrity re-parses every stored vector and reports rows that
// would be excluded from exact search. Run periodically by the
// scheduler so silent corruption shows up in logs before queries
// start missing content.
func (s *PgStore) SweepIntegrity(ctx context.Context) (checked int, faults int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding::text FROM chunks WHERE embedding IS NOT NULL`)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	logger := logutil.GetLogger(ctx)
	for rows.Next() {
		var id, rawVec string
		if err := rows.Scan(&id, &rawVec); err != nil {
			return checked, faults, fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
		}
		checked++
		if _, perr := ParseVector(rawVec, s.dim); perr != nil {
			faults++
			logger.Error("data integrity fault: unreadable stored vector",
				zap.String("chunk_id", id), zap.Error(perr))
		}
	}
	return checked, faults, rows.Err()
}

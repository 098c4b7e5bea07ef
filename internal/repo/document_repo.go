package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/pkg/dbutil"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
)

var documentFields = []string{"id", "owner_id", "filename", "file_type", "storage_key", "chunk_count", "ctime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"owner_id":    doc.OwnerID,
		"filename":    doc.Filename,
		"file_type":   doc.FileType,
		"storage_key": doc.StorageKey,
		"chunk_count": doc.ChunkCount,
		"ctime":       doc.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var doc model.Document
	if err := scanDocument(rows, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, offset, limit int) ([]model.Document, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

func (r *DocumentRepo) UpdateChunkCount(ctx context.Context, id string, count int) error {
	where := map[string]interface{}{
		"id": id,
	}
	update := map[string]interface{}{
		"chunk_count": count,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("documents", map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// StaleChunkCounts returns documents whose stored chunk_count disagrees
// with the number of rows actually present in chunks. Documents short
// of chunks that still have a blob are left to PartiallyIngested, so
// the count is not clobbered before repair re-stores the gaps.
func (r *DocumentRepo) StaleChunkCounts(ctx context.Context, limit int) (map[string]int, error) {
	const query = `
		SELECT d.id, COUNT(c.id) AS actual
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id, d.chunk_count, d.storage_key
		HAVING d.chunk_count <> COUNT(c.id)
			AND (d.storage_key = '' OR COUNT(c.id) > d.chunk_count)
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var id string
		var actual int
		if err := rows.Scan(&id, &actual); err != nil {
			return nil, err
		}
		out[id] = actual
	}
	return out, rows.Err()
}

// PartiallyIngested returns documents whose stored chunk rows fall
// short of the recorded chunk_count and that still have a blob to
// re-extract from. These are the partial ingests the re-embed job can
// actually repair.
func (r *DocumentRepo) PartiallyIngested(ctx context.Context, limit int) ([]model.Document, error) {
	const query = `
		SELECT d.id, d.owner_id, d.filename, d.file_type, d.storage_key, d.chunk_count, d.ctime
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		WHERE d.storage_key <> ''
		GROUP BY d.id
		HAVING COUNT(c.id) < d.chunk_count
		ORDER BY d.ctime
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(rows *sql.Rows, doc *model.Document) error {
	return rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.FileType, &doc.StorageKey, &doc.ChunkCount, &doc.Ctime)
}

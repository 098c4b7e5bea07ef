package repo_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/larkvine/docrag/internal/model"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
	"github.com/larkvine/docrag/internal/repo"
	"github.com/larkvine/docrag/test/testutil"
)

func newTestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func newTestDocument() *model.Document {
	return &model.Document{
		ID:         newTestID(),
		Filename:   "report.pdf",
		FileType:   "pdf",
		StorageKey: newTestID() + ".pdf",
		ChunkCount: 3,
		Ctime:      time.Now().UnixMilli(),
	}
}

func TestDocumentRepoCRUD(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	docs := repo.NewDocumentRepo(conn)

	doc := newTestDocument()
	require.NoError(t, docs.Create(ctx, doc))
	defer func() { _ = docs.Delete(ctx, doc.ID) }()

	require.ErrorIs(t, docs.Create(ctx, doc), appErr.ErrConflict)

	got, err := docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.Filename, got.Filename)
	require.Equal(t, doc.ChunkCount, got.ChunkCount)

	require.NoError(t, docs.UpdateChunkCount(ctx, doc.ID, 7))
	got, err = docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 7, got.ChunkCount)

	items, err := docs.List(ctx, 0, 10)
	require.NoError(t, err)
	found := false
	for _, item := range items {
		if item.ID == doc.ID {
			found = true
		}
	}
	require.True(t, found)

	require.NoError(t, docs.Delete(ctx, doc.ID))
	_, err = docs.GetByID(ctx, doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, docs.Delete(ctx, doc.ID), appErr.ErrNotFound)
}

func TestPartiallyIngestedSplitFromStaleCounts(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	docs := repo.NewDocumentRepo(conn)

	// Blob-backed document short of chunks: repairable, so it must
	// surface via PartiallyIngested and stay out of StaleChunkCounts.
	repairable := newTestDocument()
	require.NoError(t, docs.Create(ctx, repairable))
	defer func() { _ = docs.Delete(ctx, repairable.ID) }()

	// Inline document short of chunks: no blob to re-extract, so only
	// the recorded count can be fixed.
	inline := newTestDocument()
	inline.StorageKey = ""
	inline.ChunkCount = 2
	require.NoError(t, docs.Create(ctx, inline))
	defer func() { _ = docs.Delete(ctx, inline.ID) }()

	partial, err := docs.PartiallyIngested(ctx, 1000)
	require.NoError(t, err)
	partialIDs := make(map[string]bool)
	for _, d := range partial {
		partialIDs[d.ID] = true
	}
	require.True(t, partialIDs[repairable.ID])
	require.False(t, partialIDs[inline.ID])

	stale, err := docs.StaleChunkCounts(ctx, 1000)
	require.NoError(t, err)
	_, staleHasRepairable := stale[repairable.ID]
	require.False(t, staleHasRepairable)
	actual, ok := stale[inline.ID]
	require.True(t, ok)
	require.Zero(t, actual)
}

func TestEmbeddingCacheRepoRoundtrip(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	cache := repo.NewEmbeddingCacheRepo(conn)

	hash := newTestID()
	vec := make([]float32, 1536)
	vec[0] = 0.25
	vec[1535] = -0.5

	_, ok, err := cache.Get(ctx, "test-model", "RETRIEVAL_DOCUMENT", hash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Save(ctx, &model.EmbeddingCache{
		ModelName:   "test-model",
		TaskType:    "RETRIEVAL_DOCUMENT",
		ContentHash: hash,
		Embedding:   vec,
		Ctime:       time.Now().UnixMilli(),
	}))

	got, ok, err := cache.Get(ctx, "test-model", "RETRIEVAL_DOCUMENT", hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 0.25, got[0], 1e-6)
	require.InDelta(t, -0.5, got[1535], 1e-6)

	deleted, err := cache.DeleteBefore(ctx, time.Now().UnixMilli()+1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(1))
}

package store_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math"
	mrand "math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/store"
	"github.com/larkvine/docrag/test/testutil"
)

const testDim = 1536

func newTestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func unitVector(rng *mrand.Rand) []float32 {
	vec := make([]float32, testDim)
	var norm float64
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func newTestChunk(docID string, ordinal int, vec []float32) *model.Chunk {
	return &model.Chunk{
		ID:         newTestID(),
		DocumentID: docID,
		Ordinal:    ordinal,
		Total:      3,
		Content:    "chunk content",
		Metadata: model.ChunkMetadata{
			Source:      "fixture.pdf",
			ChunkIndex:  ordinal,
			TotalChunks: 3,
		},
		Embedding: vec,
		Ctime:     time.Now().UnixMilli(),
	}
}

func TestPgStoreSearchPathsAgree(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	pg := store.NewPgStore(conn, testDim)

	rng := mrand.New(mrand.NewSource(42))
	docID := newTestID()
	defer func() { _ = pg.DeleteByDocument(ctx, docID) }()

	query := unitVector(rng)
	for i := 0; i < 3; i++ {
		require.NoError(t, pg.Put(ctx, newTestChunk(docID, i, unitVector(rng))))
	}
	// One chunk aligned with the query so at least one row clears the
	// threshold regardless of how the random fillers land.
	aligned := newTestChunk(docID, 3, query)
	require.NoError(t, pg.Put(ctx, aligned))

	indexed, err := pg.Search(ctx, query, 0.5, 10)
	require.NoError(t, err)
	exact, err := pg.WithExactSearch().Search(ctx, query, 0.5, 10)
	require.NoError(t, err)

	require.NotEmpty(t, indexed)
	require.NotEmpty(t, exact)
	require.Equal(t, aligned.ID, indexed[0].ChunkID)
	require.Equal(t, aligned.ID, exact[0].ChunkID)
	require.InDelta(t, 1.0, float64(indexed[0].Similarity), 1e-3)
	require.InDelta(t, float64(indexed[0].Similarity), float64(exact[0].Similarity), 1e-3)
}

func TestPgStoreUpsertAndDelete(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	pg := store.NewPgStore(conn, testDim)

	rng := mrand.New(mrand.NewSource(7))
	docID := newTestID()
	defer func() { _ = pg.DeleteByDocument(ctx, docID) }()

	chunk := newTestChunk(docID, 0, unitVector(rng))
	require.NoError(t, pg.Put(ctx, chunk))
	chunk.Content = "rewritten content"
	require.NoError(t, pg.Put(ctx, chunk))
	require.NoError(t, pg.Put(ctx, newTestChunk(docID, 2, unitVector(rng))))

	n, err := pg.CountByDocument(ctx, docID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	ordinals, err := pg.OrdinalsByDocument(ctx, docID)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, ordinals)

	require.NoError(t, pg.DeleteByDocument(ctx, docID))
	n, err = pg.CountByDocument(ctx, docID)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestPgStoreSweepIntegrity(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	pg := store.NewPgStore(conn, testDim)

	rng := mrand.New(mrand.NewSource(11))
	docID := newTestID()
	defer func() { _ = pg.DeleteByDocument(ctx, docID) }()
	require.NoError(t, pg.Put(ctx, newTestChunk(docID, 0, unitVector(rng))))

	checked, faults, err := pg.SweepIntegrity(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, checked, 1)
	require.GreaterOrEqual(t, faults, 0)
}

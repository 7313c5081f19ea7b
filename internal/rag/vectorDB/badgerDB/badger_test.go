package badgerDB

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chroma_db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.EnsureCollection(ctx, "documents", map[string]string{"hnsw:space": "cosine"}))
	require.NoError(t, db.Insert(ctx, "documents", []vectorDB.Record{
		{ID: "a", Content: "alpha", Metadata: commonModels.Metadata{"page": int64(1)}, Embedding: []float32{1, 0}},
		{ID: "b", Content: "bravo", Embedding: []float32{0, 1}},
	}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.Count(ctx, "documents")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	matches, err := db.Search(ctx, "documents", []float32{0, 1}, 1, false)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-9)
	assert.Nil(t, matches[0].Embedding)
}

func TestDB_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureCollection(ctx, "docs", nil))
	require.NoError(t, db.EnsureCollection(ctx, "docs2", nil))
	require.NoError(t, db.Insert(ctx, "docs", []vectorDB.Record{{ID: "1", Content: "x", Embedding: []float32{1}}}))
	require.NoError(t, db.Insert(ctx, "docs2", []vectorDB.Record{{ID: "1", Content: "y", Embedding: []float32{1}}}))

	require.NoError(t, db.DeleteCollection(ctx, "docs"))

	_, err = db.Count(ctx, "docs")
	assert.True(t, errors.Is(err, commonModels.ErrCollectionNotFound))
	n, err := db.Count(ctx, "docs2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = db.Insert(ctx, "docs", []vectorDB.Record{{ID: "2"}})
	assert.True(t, errors.Is(err, commonModels.ErrCollectionNotFound))

	cols, err := db.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "docs2", cols[0].Name)
}

func TestDB_EnsureCollectionKeepsExisting(t *testing.T) {
	ctx := context.Background()
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureCollection(ctx, "docs", map[string]string{"hnsw:space": "cosine"}))
	require.NoError(t, db.Insert(ctx, "docs", []vectorDB.Record{{ID: "1", Content: "x", Embedding: []float32{1}}}))
	require.NoError(t, db.EnsureCollection(ctx, "docs", map[string]string{"other": "value"}))

	cols, err := db.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, map[string]string{"hnsw:space": "cosine"}, cols[0].Metadata)
	assert.Equal(t, 1, cols[0].Count)

	assert.Error(t, db.EnsureCollection(ctx, " ", nil))
}

func TestDB_MetadataNumberTypesRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureCollection(ctx, "docs", nil))
	require.NoError(t, db.Insert(ctx, "docs", []vectorDB.Record{{
		ID:      "1",
		Content: "x",
		Metadata: commonModels.Metadata{
			"whole_float": 2.0,
			"ratio":       0.25,
			"page":        int64(2),
			"big":         int64(1 << 60),
		},
		Embedding: []float32{1},
	}}))

	matches, err := db.Search(ctx, "docs", []float32{1}, 1, false)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	meta := matches[0].Metadata
	assert.Equal(t, 2.0, meta["whole_float"])
	assert.Equal(t, 0.25, meta["ratio"])
	assert.Equal(t, int64(2), meta["page"])
	assert.Equal(t, int64(1<<60), meta["big"])
}

//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hirescope/hirescope/internal/embeddings"
	"github.com/hirescope/hirescope/internal/vectorstore"
	"github.com/hirescope/hirescope/pkg/database"
)

const testDims = 32

func setupCollection(t *testing.T, name string) *ResumeCollection {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "pgvector/pgvector:pg17",
		postgres.WithDatabase("hirescope_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.EnsureExtensions(ctx, dsn, "vector"))

	pool, err := database.NewPostgresPool(ctx, dsn, database.WithAfterConnect(pgxvec.RegisterTypes))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	coll := NewResumeCollection(pool, name, embeddings.NewMockClient(testDims))
	require.NoError(t, coll.EnsureSchema(ctx, testDims))

	return coll
}

func TestResumeCollection_Integration(t *testing.T) {
	coll := setupCollection(t, "resumes")
	ctx := context.Background()

	records := []vectorstore.Record{
		{ID: "jane_doe_20240101000000", Document: `{"name": "Jane Doe", "skills": ["Go"]}`,
			Metadata: vectorstore.Metadata{"candidate_id": "jane_doe_20240101000000", "name": "Jane Doe",
				"uploaded_by": "alice", "uploaded_at": "2024-01-01T00:00:00Z"}},
		{ID: "john_roe_20240102000000", Document: `{"name": "John Roe", "skills": ["Python"]}`,
			Metadata: vectorstore.Metadata{"candidate_id": "john_roe_20240102000000", "name": "John Roe",
				"uploaded_by": "bob", "uploaded_at": "2024-01-02T00:00:00Z"}},
	}

	t.Run("add and count", func(t *testing.T) {
		require.NoError(t, coll.Add(ctx, records))

		n, err := coll.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("upsert keeps count", func(t *testing.T) {
		updated := records[0]
		updated.Document = `{"name": "Jane Doe", "skills": ["Go", "Rust"]}`
		require.NoError(t, coll.Add(ctx, []vectorstore.Record{updated}))

		n, err := coll.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := coll.Get(ctx, vectorstore.Where{"name": "Jane Doe"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Document, "Rust")
	})

	t.Run("query returns the identical document first", func(t *testing.T) {
		hits, err := coll.Query(ctx, records[1].Document, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "john_roe_20240102000000", hits[0].ID)
		assert.InDelta(t, 0, hits[0].Distance, 1e-3)
		assert.Equal(t, "bob", hits[0].Metadata["uploaded_by"])
	})

	t.Run("get all is ordered by upload time", func(t *testing.T) {
		got, err := coll.Get(ctx, nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "jane_doe_20240101000000", got[0].ID)
		assert.Equal(t, "john_roe_20240102000000", got[1].ID)
	})

	t.Run("delete requires a filter", func(t *testing.T) {
		err := coll.Delete(ctx, vectorstore.DeleteFilter{})
		assert.ErrorIs(t, err, vectorstore.ErrEmptyDeleteFilter)
	})

	t.Run("delete by ids and where must match both", func(t *testing.T) {
		err := coll.Delete(ctx, vectorstore.DeleteFilter{
			IDs:   []string{"jane_doe_20240101000000"},
			Where: vectorstore.Where{"uploaded_by": "bob"},
		})
		require.NoError(t, err)

		n, err := coll.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("delete by where", func(t *testing.T) {
		require.NoError(t, coll.Delete(ctx, vectorstore.DeleteFilter{Where: vectorstore.Where{"name": "John Roe"}}))

		n, err := coll.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

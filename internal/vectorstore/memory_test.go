package vectorstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps a fixed vocabulary to axes so nearest-neighbour order is predictable.
type keywordEmbedder struct {
	calls atomic.Int64
	err   error
}

var vocabulary = []string{"python", "java", "golang", "sales", "design"}

func (e *keywordEmbedder) CreateEmbedding(_ context.Context, input string) ([]float32, error) {
	e.calls.Add(1)

	if e.err != nil {
		return nil, e.err
	}

	lower := strings.ToLower(input)
	vec := make([]float32, len(vocabulary)+1)
	vec[len(vocabulary)] = 0.1

	for i, word := range vocabulary {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}

	return vec, nil
}

func record(id, name, doc string) Record {
	return Record{
		ID:       id,
		Document: doc,
		Metadata: Metadata{
			MetaCandidateID: id,
			MetaName:        name,
			MetaUploadedBy:  "hr@example.com",
			MetaUploadedAt:  "2024-01-01T00:00:00Z",
		},
	}
}

func TestMemoryCollection_roundTrip(t *testing.T) {
	ctx := context.Background()

	c, err := NewMemoryCollection("resumes", &keywordEmbedder{})
	require.NoError(t, err)
	assert.False(t, c.Persistent())

	id := "janedoe_20240101000000"
	require.NoError(t, c.Add(ctx, []Record{record(id, "Jane Doe", "Jane Doe ... Python ... 5 years experience")}))

	got, err := c.Get(ctx, Where{MetaName: "Jane Doe"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "Jane Doe", got[0].Metadata[MetaName])

	require.NoError(t, c.Delete(ctx, DeleteFilter{IDs: []string{id}}))

	got, err = c.Get(ctx, Where{MetaName: "Jane Doe"})
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryCollection_Query(t *testing.T) {
	ctx := context.Background()

	c, err := NewMemoryCollection("resumes", &keywordEmbedder{})
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, []Record{
		record("a", "Alice", "Java developer"),
		record("b", "Bob", "Python and Golang engineer"),
		record("c", "Cara", "Sales lead"),
	}))

	t.Run("closest first", func(t *testing.T) {
		res, err := c.Query(ctx, "who knows python?", 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "b", res[0].ID)
		assert.Less(t, res[0].Distance, res[1].Distance)
	})

	t.Run("n larger than collection", func(t *testing.T) {
		res, err := c.Query(ctx, "sales", 10)
		require.NoError(t, err)
		assert.Len(t, res, 3)
		assert.Equal(t, "c", res[0].ID)
	})

	t.Run("n zero", func(t *testing.T) {
		res, err := c.Query(ctx, "sales", 0)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("results are copies", func(t *testing.T) {
		res, err := c.Query(ctx, "java", 1)
		require.NoError(t, err)
		res[0].Metadata[MetaName] = "mutated"

		got, err := c.Get(ctx, Where{MetaCandidateID: "a"})
		require.NoError(t, err)
		assert.Equal(t, "Alice", got[0].Metadata[MetaName])
	})
}

func TestMemoryCollection_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts by id", func(t *testing.T) {
		c, err := NewMemoryCollection("resumes", &keywordEmbedder{})
		require.NoError(t, err)

		require.NoError(t, c.Add(ctx, []Record{record("a", "Alice", "Java")}))
		require.NoError(t, c.Add(ctx, []Record{record("a", "Alice", "Golang")}))

		got, err := c.Get(ctx, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Golang", got[0].Document)
	})

	t.Run("rejects invalid records before embedding", func(t *testing.T) {
		emb := &keywordEmbedder{}
		c, err := NewMemoryCollection("resumes", emb)
		require.NoError(t, err)

		assert.ErrorIs(t, c.Add(ctx, []Record{{ID: "", Document: "x"}}), ErrMissingID)
		assert.ErrorIs(t, c.Add(ctx, []Record{{ID: "x", Document: ""}}), ErrEmptyDocument)
		assert.Zero(t, emb.calls.Load())
	})

	t.Run("embedding failure stores nothing", func(t *testing.T) {
		boom := errors.New("provider down")
		c, err := NewMemoryCollection("resumes", &keywordEmbedder{err: boom})
		require.NoError(t, err)

		require.ErrorIs(t, c.Add(ctx, []Record{record("a", "Alice", "Java")}), boom)

		n, _ := c.Count(ctx)
		assert.Zero(t, n)
	})
}

func TestMemoryCollection_Delete(t *testing.T) {
	ctx := context.Background()

	c, err := NewMemoryCollection("resumes", &keywordEmbedder{})
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, []Record{
		record("a1", "Alice", "Java"),
		record("a2", "Alice", "Golang"),
		record("b", "Bob", "Python"),
	}))

	assert.ErrorIs(t, c.Delete(ctx, DeleteFilter{}), ErrEmptyDeleteFilter)

	// ids and where must both match
	require.NoError(t, c.Delete(ctx, DeleteFilter{IDs: []string{"b"}, Where: Where{MetaName: "Alice"}}))
	n, _ := c.Count(ctx)
	assert.Equal(t, 3, n)

	require.NoError(t, c.Delete(ctx, DeleteFilter{Where: Where{MetaName: "Alice"}}))
	got, err := c.Get(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	require.NoError(t, c.Delete(ctx, DeleteFilter{IDs: []string{"missing"}}))
}

func TestMemoryCollection_Get_ordering(t *testing.T) {
	ctx := context.Background()

	c, err := NewMemoryCollection("resumes", &keywordEmbedder{})
	require.NoError(t, err)

	late := record("a", "Alice", "Java")
	late.Metadata[MetaUploadedAt] = "2024-03-01T00:00:00Z"
	early := record("z", "Zed", "Java")
	early.Metadata[MetaUploadedAt] = "2024-01-01T00:00:00Z"

	require.NoError(t, c.Add(ctx, []Record{late, early}))

	got, err := c.Get(ctx, Where{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "z", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestMemoryCollection_persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := NewMemoryCollection("resumes", &keywordEmbedder{}, WithPersistDir(dir))
	require.NoError(t, err)
	require.True(t, c.Persistent())

	require.NoError(t, c.Add(ctx, []Record{record("a", "Alice", "Java"), record("b", "Bob", "Python")}))
	require.NoError(t, c.Delete(ctx, DeleteFilter{IDs: []string{"a"}}))

	assert.FileExists(t, filepath.Join(dir, "resumes.json"))

	reopened, err := NewMemoryCollection("resumes", &keywordEmbedder{}, WithPersistDir(dir))
	require.NoError(t, err)

	got, err := reopened.Get(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	res, err := reopened.Query(ctx, "python", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].ID)
}

func TestMemoryCollection_failedSnapshotLeavesEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := NewMemoryCollection("resumes", &keywordEmbedder{}, WithPersistDir(dir))
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []Record{record("a", "Alice", "Java"), record("b", "Bob", "Python")}))

	// A non-empty directory at the snapshot path makes the final rename fail.
	snapshotPath := filepath.Join(dir, "resumes.json")
	require.NoError(t, os.Remove(snapshotPath))
	require.NoError(t, os.MkdirAll(filepath.Join(snapshotPath, "keep"), 0o755))

	t.Run("add", func(t *testing.T) {
		updated := record("a", "Alice", "Golang")
		err := c.Add(ctx, []Record{updated, record("c", "Carol", "Design")})
		require.Error(t, err)

		got, err := c.Get(ctx, nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "Java", got[0].Document)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("delete", func(t *testing.T) {
		err := c.Delete(ctx, DeleteFilter{Where: Where{MetaName: "Alice"}})
		require.Error(t, err)

		n, err := c.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := c.Get(ctx, Where{MetaName: "Alice"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
	})
}

func TestMemoryCollection_corruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resumes.json"), []byte("{not json"), 0o600))

	_, err := NewMemoryCollection("resumes", &keywordEmbedder{}, WithPersistDir(dir))
	assert.Error(t, err)
}

func TestMemoryCollection_unwritableDirFallsBack(t *testing.T) {
	// A regular file where the directory should be cannot be created as a directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	c, err := NewMemoryCollection("resumes", &keywordEmbedder{}, WithPersistDir(filepath.Join(blocker, "store")))
	require.NoError(t, err)
	assert.False(t, c.Persistent())

	require.NoError(t, c.Add(context.Background(), []Record{record("a", "Alice", "Java")}))
	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWhere_Matches(t *testing.T) {
	md := Metadata{MetaName: "Jane Doe", MetaUploadedBy: "hr"}

	assert.True(t, Where{}.Matches(md))
	assert.True(t, Where{MetaName: "Jane Doe"}.Matches(md))
	assert.False(t, Where{MetaName: "jane doe"}.Matches(md))
	assert.False(t, Where{MetaName: "Jane Doe", MetaUploadedBy: "other"}.Matches(md))
}

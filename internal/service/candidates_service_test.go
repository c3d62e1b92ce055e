package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hirescope/hirescope/internal/apperrors"
	"github.com/hirescope/hirescope/internal/datatypes"
	"github.com/hirescope/hirescope/internal/export"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/vectorstore"
)

func seedCandidates(t *testing.T, coll vectorstore.Collection) {
	t.Helper()

	rec := func(id, name, by, at, doc string) vectorstore.Record {
		return vectorstore.Record{ID: id, Document: doc, Metadata: vectorstore.Metadata{
			vectorstore.MetaCandidateID: id, vectorstore.MetaName: name,
			vectorstore.MetaUploadedBy: by, vectorstore.MetaUploadedAt: at,
		}}
	}

	require.NoError(t, coll.Add(context.Background(), []vectorstore.Record{
		rec("janedoe_20240101000000", "Jane Doe", "alice", "2024-01-01T00:00:00Z", "Skills: Python, Go"),
		rec("johnroe_20240102000000", "John Roe", "Bob", "2024-01-02T00:00:00Z", "Skills: Java"),
		rec("maryjane_20240103000000", "Mary Jane", "alice", "2024-01-03T00:00:00Z", "Skills: Rust"),
	}))
}

func TestCandidatesService_List(t *testing.T) {
	ctx := context.Background()
	coll := newMemoryCollection(t)
	seedCandidates(t, coll)
	svc := NewCandidatesService(coll, nil)

	tests := []struct {
		name    string
		filters models.ListCandidatesFilters
		wantIDs []string
		total   int64
	}{
		{"all in upload order", models.ListCandidatesFilters{},
			[]string{"janedoe_20240101000000", "johnroe_20240102000000", "maryjane_20240103000000"}, 3},
		{"name substring is case-insensitive", models.ListCandidatesFilters{Name: "JANE"},
			[]string{"janedoe_20240101000000", "maryjane_20240103000000"}, 2},
		{"uploaded_by", models.ListCandidatesFilters{UploadedBy: "bob"}, []string{"johnroe_20240102000000"}, 1},
		{"q searches the summary", models.ListCandidatesFilters{Query: "rust"}, []string{"maryjane_20240103000000"}, 1},
		{"paging", models.ListCandidatesFilters{Limit: 1, Offset: 1}, []string{"johnroe_20240102000000"}, 3},
		{"offset past the end", models.ListCandidatesFilters{Offset: 10}, []string{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters := tt.filters

			resp, err := svc.ListCandidates(ctx, &filters)
			require.NoError(t, err)

			ids := make([]string, 0, len(resp.Data))
			for _, c := range resp.Data {
				ids = append(ids, c.CandidateID)
			}

			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.total, resp.Total)
		})
	}

	t.Run("limit defaults and caps", func(t *testing.T) {
		resp, err := svc.ListCandidates(ctx, &models.ListCandidatesFilters{})
		require.NoError(t, err)
		assert.Equal(t, DefaultCandidatesLimit, resp.Limit)

		resp, err = svc.ListCandidates(ctx, &models.ListCandidatesFilters{Limit: 5000})
		require.NoError(t, err)
		assert.Equal(t, MaxCandidatesLimit, resp.Limit)
	})

	t.Run("store failure is a retrieval error", func(t *testing.T) {
		failing := NewCandidatesService(&faultyCollection{Collection: coll,
			getFunc: func(context.Context, vectorstore.Where) ([]vectorstore.Record, error) {
				return nil, errors.New("connection refused")
			}}, nil)

		_, err := failing.ListCandidates(ctx, &models.ListCandidatesFilters{})
		assert.ErrorIs(t, err, apperrors.ErrRetrieval)
	})
}

func TestCandidatesService_GetDeleteCount(t *testing.T) {
	ctx := context.Background()
	coll := newMemoryCollection(t)
	seedCandidates(t, coll)
	pub := &capturingPublisher{}
	svc := NewCandidatesService(coll, pub)

	t.Run("get", func(t *testing.T) {
		c, err := svc.GetCandidate(ctx, "johnroe_20240102000000")
		require.NoError(t, err)
		assert.Equal(t, "John Roe", c.Name)
		require.NotNil(t, c.UploadedAt)
		assert.Equal(t, 2, c.UploadedAt.Day())
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := svc.GetCandidate(ctx, "nobody")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("delete emits event", func(t *testing.T) {
		require.NoError(t, svc.DeleteCandidate(ctx, "johnroe_20240102000000"))

		n, err := svc.CountCandidates(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.Len(t, pub.events, 1)
		assert.Equal(t, datatypes.CandidateDeleted, pub.events[0].eventType)
		assert.Equal(t, "John Roe", pub.events[0].data.(models.CandidateMetadata).Name)
	})

	t.Run("delete missing", func(t *testing.T) {
		err := svc.DeleteCandidate(ctx, "johnroe_20240102000000")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCandidatesService_Export(t *testing.T) {
	coll := newMemoryCollection(t)
	seedCandidates(t, coll)
	svc := NewCandidatesService(coll, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCandidates(context.Background(), &buf, &models.ListCandidatesFilters{UploadedBy: "alice", Limit: 1}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Jane Doe", rows[1][1])
	assert.Equal(t, "Mary Jane", rows[2][1])
}

package handlers

import (
	"context"
	"io"

	"github.com/hirescope/hirescope/internal/jobs"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/service"
)

type mockQueryService struct {
	queryFunc func(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
}

func (m *mockQueryService) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	return m.queryFunc(ctx, req)
}

type mockConversationsService struct {
	getFunc  func(ctx context.Context, id string) (*models.Conversation, error)
	sendFunc func(ctx context.Context, id string, req *models.SendMessageRequest) (*models.SendMessageResponse, error)
}

func (m *mockConversationsService) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return m.getFunc(ctx, id)
}

func (m *mockConversationsService) SendMessage(
	ctx context.Context, id string, req *models.SendMessageRequest,
) (*models.SendMessageResponse, error) {
	return m.sendFunc(ctx, id, req)
}

type mockCandidatesService struct {
	listFunc   func(ctx context.Context, filters *models.ListCandidatesFilters) (*models.ListCandidatesResponse, error)
	getFunc    func(ctx context.Context, id string) (*models.Candidate, error)
	deleteFunc func(ctx context.Context, id string) error
	countFunc  func(ctx context.Context) (int, error)
	exportFunc func(ctx context.Context, w io.Writer, filters *models.ListCandidatesFilters) error
}

func (m *mockCandidatesService) ListCandidates(
	ctx context.Context, filters *models.ListCandidatesFilters,
) (*models.ListCandidatesResponse, error) {
	return m.listFunc(ctx, filters)
}

func (m *mockCandidatesService) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	return m.getFunc(ctx, id)
}

func (m *mockCandidatesService) DeleteCandidate(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockCandidatesService) CountCandidates(ctx context.Context) (int, error) {
	return m.countFunc(ctx)
}

func (m *mockCandidatesService) ExportCandidates(ctx context.Context, w io.Writer, filters *models.ListCandidatesFilters) error {
	return m.exportFunc(ctx, w, filters)
}

type mockIngester struct {
	batches    []service.IngestBatch
	ingestFunc func(ctx context.Context, batch service.IngestBatch) (*models.IngestResponse, error)
}

func (m *mockIngester) Ingest(ctx context.Context, batch service.IngestBatch) (*models.IngestResponse, error) {
	m.batches = append(m.batches, batch)

	if m.ingestFunc != nil {
		return m.ingestFunc(ctx, batch)
	}

	return &models.IngestResponse{Results: []models.IngestFileResult{}}, nil
}

type mockJobReader struct {
	getFunc func(ctx context.Context, id int64) (*jobs.JobStatus, error)
}

func (m *mockJobReader) GetIngestJob(ctx context.Context, id int64) (*jobs.JobStatus, error) {
	return m.getFunc(ctx, id)
}

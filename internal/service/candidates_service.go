package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hirescope/hirescope/internal/apperrors"
	"github.com/hirescope/hirescope/internal/datatypes"
	"github.com/hirescope/hirescope/internal/export"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/vectorstore"
)

// Candidate list paging.
const (
	DefaultCandidatesLimit = 100
	MaxCandidatesLimit     = 1000
)

// CandidatesService browses and deletes stored candidates.
type CandidatesService struct {
	collection vectorstore.Collection
	publisher  MessagePublisher
}

// NewCandidatesService creates a CandidatesService. publisher may be nil.
func NewCandidatesService(collection vectorstore.Collection, publisher MessagePublisher) *CandidatesService {
	return &CandidatesService{collection: collection, publisher: publisher}
}

// ListCandidates returns candidates matching the substring filters, oldest upload first.
func (s *CandidatesService) ListCandidates(ctx context.Context, filters *models.ListCandidatesFilters) (*models.ListCandidatesResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultCandidatesLimit
	}

	if filters.Limit > MaxCandidatesLimit {
		filters.Limit = MaxCandidatesLimit
	}

	if filters.Offset < 0 {
		filters.Offset = 0
	}

	all, err := s.filtered(ctx, filters)
	if err != nil {
		return nil, err
	}

	start := min(filters.Offset, len(all))
	end := min(start+filters.Limit, len(all))

	return &models.ListCandidatesResponse{
		Data:   all[start:end],
		Total:  int64(len(all)),
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// filtered loads every record and applies the filters in Go.
func (s *CandidatesService) filtered(ctx context.Context, filters *models.ListCandidatesFilters) ([]models.Candidate, error) {
	records, err := s.collection.Get(ctx, nil)
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.KindRetrieval, "list candidates", err)
	}

	out := make([]models.Candidate, 0, len(records))

	for _, rec := range records {
		c := candidateFromRecord(rec)
		if matchesFilters(c, filters) {
			out = append(out, c)
		}
	}

	return out, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matchesFilters(c models.Candidate, f *models.ListCandidatesFilters) bool {
	if f.Name != "" && !containsFold(c.Name, f.Name) {
		return false
	}

	if f.UploadedBy != "" && !containsFold(c.UploadedBy, f.UploadedBy) {
		return false
	}

	if f.Query != "" && !containsFold(c.Name, f.Query) && !containsFold(c.Summary, f.Query) &&
		!containsFold(c.CandidateID, f.Query) {
		return false
	}

	return true
}

// GetCandidate returns one candidate by candidate id.
func (s *CandidatesService) GetCandidate(ctx context.Context, candidateID string) (*models.Candidate, error) {
	records, err := s.collection.Get(ctx, vectorstore.Where{vectorstore.MetaCandidateID: candidateID})
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.KindRetrieval, "get candidate", err)
	}

	if len(records) == 0 {
		return nil, apperrors.NewNotFoundError("candidate", "candidate not found")
	}

	c := candidateFromRecord(records[0])

	return &c, nil
}

// DeleteCandidate removes a candidate. Deletion is immediate and irreversible.
func (s *CandidatesService) DeleteCandidate(ctx context.Context, candidateID string) error {
	c, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}

	if err := s.collection.Delete(ctx, vectorstore.DeleteFilter{IDs: []string{candidateID}}); err != nil {
		return apperrors.NewExternalError(apperrors.KindStorage, "delete candidate", err)
	}

	if s.publisher != nil {
		s.publisher.PublishEvent(ctx, datatypes.CandidateDeleted, models.CandidateMetadata{
			CandidateID: c.CandidateID,
			Name:        c.Name,
			UploadedBy:  c.UploadedBy,
		})
	}

	return nil
}

// CountCandidates returns the number of stored résumés.
func (s *CandidatesService) CountCandidates(ctx context.Context) (int, error) {
	n, err := s.collection.Count(ctx)
	if err != nil {
		return 0, apperrors.NewExternalError(apperrors.KindRetrieval, "count candidates", err)
	}

	return n, nil
}

// ExportCandidates writes every candidate matching filters as XLSX. Paging is ignored.
func (s *CandidatesService) ExportCandidates(ctx context.Context, w io.Writer, filters *models.ListCandidatesFilters) error {
	all, err := s.filtered(ctx, filters)
	if err != nil {
		return err
	}

	if err := export.WriteCandidatesXLSX(w, all); err != nil {
		return fmt.Errorf("export candidates: %w", err)
	}

	return nil
}

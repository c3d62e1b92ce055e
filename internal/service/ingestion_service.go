package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hirescope/hirescope/internal/apperrors"
	"github.com/hirescope/hirescope/internal/datatypes"
	"github.com/hirescope/hirescope/internal/jobs"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/observability"
	"github.com/hirescope/hirescope/internal/resume"
	"github.com/hirescope/hirescope/internal/vectorstore"
)

// Upload limits.
const (
	MaxFilesPerBatch = 15
	PreviewRunes     = 1200
)

// ErrAsyncDisabled is returned for an async batch when no job inserter is configured.
var ErrAsyncDisabled = errors.New("asynchronous ingestion is not enabled")

// TextExtractor pulls plain text out of an uploaded file.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// ResumeSummarizer turns extracted text into a stored summary.
type ResumeSummarizer interface {
	Summarize(ctx context.Context, raw string) (resume.Summary, error)
}

// UploadedFile is one file of an upload batch.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// IngestBatch is one upload request.
type IngestBatch struct {
	UploadedBy string
	Files      []UploadedFile
	// Overwrite lists candidate names (or filenames) whose existing records may be replaced.
	Overwrite []string
	// Async enqueues summarize and store as background jobs.
	Async bool
}

// StoreRequest is extracted text ready to be summarized and stored.
type StoreRequest struct {
	Filename   string
	RawText    string
	UploadedBy string
	// Overwrite lists candidate names (or this filename) whose existing records may be replaced.
	Overwrite []string
}

// IngestionService runs the upload pipeline: extract, summarize, name, duplicate check, store.
type IngestionService struct {
	collection vectorstore.Collection
	extractor  TextExtractor
	summarizer ResumeSummarizer
	publisher  MessagePublisher
	inserter   jobs.JobInserter
	metrics    observability.RAGMetrics
	logger     *slog.Logger
	now        func() time.Time
	suffix     func() string

	// mu serializes duplicate check, id allocation and add across all requests.
	mu sync.Mutex
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithJobInserter enables async batches.
func WithJobInserter(inserter jobs.JobInserter) IngestionOption {
	return func(s *IngestionService) {
		s.inserter = inserter
	}
}

// SetJobInserter enables async batches after construction, for when the job client
// is built from workers that already reference this service. Call before serving requests.
func (s *IngestionService) SetJobInserter(inserter jobs.JobInserter) {
	s.inserter = inserter
}

// WithIngestMetrics records per-file outcomes. nil disables.
func WithIngestMetrics(m observability.RAGMetrics) IngestionOption {
	return func(s *IngestionService) {
		s.metrics = m
	}
}

// WithClock overrides the upload timestamp source.
func WithClock(now func() time.Time) IngestionOption {
	return func(s *IngestionService) {
		s.now = now
	}
}

// NewIngestionService creates an IngestionService. publisher may be nil.
func NewIngestionService(
	collection vectorstore.Collection, extractor TextExtractor, summarizer ResumeSummarizer,
	publisher MessagePublisher, opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		collection: collection,
		extractor:  extractor,
		summarizer: summarizer,
		publisher:  publisher,
		logger:     slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
		suffix:     randomSuffix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// randomSuffix returns 6 hex characters.
func randomSuffix() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)

	return hex.EncodeToString(b)
}

// AsyncEnabled reports whether batches can be queued.
func (s *IngestionService) AsyncEnabled() bool {
	return s.inserter != nil
}

// Ingest processes every file of the batch in order. Per-file failures are reported in the
// results and do not stop the batch; the returned error is only for an invalid batch.
func (s *IngestionService) Ingest(ctx context.Context, batch IngestBatch) (*models.IngestResponse, error) {
	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	if batch.Async && s.inserter == nil {
		return nil, apperrors.NewValidationError("async", ErrAsyncDisabled.Error())
	}

	resp := &models.IngestResponse{
		Results: make([]models.IngestFileResult, 0, len(batch.Files)),
		Stats:   models.IngestStats{TotalUploaded: len(batch.Files)},
	}

	for _, f := range batch.Files {
		result := s.ingestFile(ctx, f, batch)

		switch result.Status {
		case models.IngestStatusStored:
			resp.Stats.Processed++
		case models.IngestStatusDuplicate:
			resp.Stats.Duplicates++
		case models.IngestStatusQueued:
			resp.Stats.Queued++
		case models.IngestStatusError:
			resp.Stats.Errors++
		}

		if s.metrics != nil {
			s.metrics.RecordIngestedFile(ctx, string(result.Status))
		}

		resp.Results = append(resp.Results, result)
	}

	return resp, nil
}

func validateBatch(batch IngestBatch) error {
	if strings.TrimSpace(batch.UploadedBy) == "" {
		return apperrors.NewValidationError("uploaded_by", "uploaded_by is required")
	}

	if len(batch.Files) == 0 {
		return apperrors.NewValidationError("files", "at least one file is required")
	}

	if len(batch.Files) > MaxFilesPerBatch {
		return apperrors.NewLimitExceededError(fmt.Sprintf("at most %d files per upload", MaxFilesPerBatch))
	}

	return nil
}

func (s *IngestionService) ingestFile(ctx context.Context, f UploadedFile, batch IngestBatch) models.IngestFileResult {
	raw, err := s.extractor.Extract(ctx, f.Filename, f.Data)
	if err != nil {
		return s.errorResult(ctx, f.Filename, err)
	}

	if batch.Async {
		id, err := s.inserter.InsertIngestJob(ctx, jobs.IngestJobArgs{
			Filename:   f.Filename,
			RawText:    raw,
			UploadedBy: batch.UploadedBy,
			Overwrite:  batch.Overwrite,
		})
		if err != nil {
			return s.errorResult(ctx, f.Filename, apperrors.NewExternalError(apperrors.KindStorage, "enqueue ingest job", err))
		}

		return models.IngestFileResult{
			Filename:   f.Filename,
			Status:     models.IngestStatusQueued,
			JobID:      id,
			RawPreview: resume.Preview(raw, PreviewRunes),
		}
	}

	return s.store(ctx, StoreRequest{Filename: f.Filename, RawText: raw, UploadedBy: batch.UploadedBy, Overwrite: batch.Overwrite})
}

// StoreText summarizes and stores already extracted text. It is the body of an async ingest job.
// The error is non-nil only for failures worth retrying (summarization and storage).
func (s *IngestionService) StoreText(ctx context.Context, req StoreRequest) (models.IngestFileResult, error) {
	result := s.store(ctx, req)

	if s.metrics != nil {
		s.metrics.RecordIngestedFile(ctx, string(result.Status))
	}

	if result.Status == models.IngestStatusError {
		return result, fmt.Errorf("%s: %s", result.ErrorKind, result.Error)
	}

	return result, nil
}

// mayOverwrite reports whether req lists name or its own filename for overwrite.
func (req StoreRequest) mayOverwrite(name string) bool {
	for _, o := range req.Overwrite {
		o = strings.TrimSpace(o)
		if o != "" && (o == name || o == req.Filename) {
			return true
		}
	}

	return false
}

func (s *IngestionService) store(ctx context.Context, req StoreRequest) models.IngestFileResult {
	summary, err := s.summarizer.Summarize(ctx, req.RawText)
	if err != nil {
		return s.errorResult(ctx, req.Filename, err)
	}

	name := resume.CandidateName(summary, req.Filename)
	result := models.IngestFileResult{
		Filename:       req.Filename,
		Name:           name,
		SummaryPreview: resume.Preview(summary.Text(), PreviewRunes),
		RawPreview:     resume.Preview(req.RawText, PreviewRunes),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.collection.Get(ctx, vectorstore.Where{vectorstore.MetaName: name})
	if err != nil {
		return s.withError(ctx, result, apperrors.NewExternalError(apperrors.KindStorage, "check duplicates", err))
	}

	if len(existing) > 0 {
		ids := recordIDs(existing)

		if !req.mayOverwrite(name) {
			result.Status = models.IngestStatusDuplicate
			result.ExistingIDs = ids

			return result
		}

		if err := s.collection.Delete(ctx, vectorstore.DeleteFilter{Where: vectorstore.Where{vectorstore.MetaName: name}}); err != nil {
			return s.withError(ctx, result, apperrors.NewExternalError(apperrors.KindStorage, "delete overwritten candidates", err))
		}

		for _, rec := range existing {
			s.publish(ctx, datatypes.CandidateDeleted, metadataToModel(rec.Metadata))
		}

		s.logger.InfoContext(ctx, "overwrote existing candidates", "name", name, "candidate_ids", ids)
	}

	uploadedAt := s.now().UTC()

	id, err := s.allocateID(ctx, name, uploadedAt)
	if err != nil {
		return s.withError(ctx, result, err)
	}

	md := vectorstore.Metadata{
		vectorstore.MetaCandidateID: id,
		vectorstore.MetaName:        name,
		vectorstore.MetaUploadedBy:  req.UploadedBy,
		vectorstore.MetaUploadedAt:  uploadedAt.Format(time.RFC3339),
	}

	if err := s.collection.Add(ctx, []vectorstore.Record{{ID: id, Document: summary.Text(), Metadata: md}}); err != nil {
		return s.withError(ctx, result, apperrors.NewExternalError(apperrors.KindStorage, "store summary", err))
	}

	s.publish(ctx, datatypes.CandidateCreated, metadataToModel(md))

	result.Status = models.IngestStatusStored
	result.CandidateID = id

	return result
}

// allocateID returns name's candidate id, adding a random suffix when the id is taken.
// Callers hold s.mu.
func (s *IngestionService) allocateID(ctx context.Context, name string, t time.Time) (string, error) {
	id := resume.CandidateID(name, t)

	for range 3 {
		taken, err := s.collection.Get(ctx, vectorstore.Where{vectorstore.MetaCandidateID: id})
		if err != nil {
			return "", apperrors.NewExternalError(apperrors.KindStorage, "check candidate id", err)
		}

		if len(taken) == 0 {
			return id, nil
		}

		id = resume.CandidateID(name, t) + "_" + s.suffix()
	}

	return "", apperrors.NewExternalError(apperrors.KindStorage, "allocate candidate id",
		apperrors.NewConflictError("candidate id collision"))
}

func (s *IngestionService) publish(ctx context.Context, eventType datatypes.EventType, md models.CandidateMetadata) {
	if s.publisher != nil {
		s.publisher.PublishEvent(ctx, eventType, md)
	}
}

func (s *IngestionService) errorResult(ctx context.Context, filename string, err error) models.IngestFileResult {
	return s.withError(ctx, models.IngestFileResult{Filename: filename}, err)
}

func (s *IngestionService) withError(ctx context.Context, result models.IngestFileResult, err error) models.IngestFileResult {
	kind := apperrors.KindOf(err)
	if kind == "" {
		kind = apperrors.KindStorage
	}

	s.logger.WarnContext(ctx, "résumé ingestion failed", "filename", result.Filename, "error_kind", kind, "error", err)

	result.Status = models.IngestStatusError
	result.ErrorKind = string(kind)
	result.Error = err.Error()

	return result
}

func recordIDs(records []vectorstore.Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	return ids
}

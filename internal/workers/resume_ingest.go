// Package workers provides River job workers.
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/hirescope/hirescope/internal/jobs"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/service"
)

// ResumeIngestTimeout bounds one summarize and store attempt.
const ResumeIngestTimeout = 2 * time.Minute

// textStorer is the part of the ingestion service the worker needs.
type textStorer interface {
	StoreText(ctx context.Context, req service.StoreRequest) (models.IngestFileResult, error)
}

// ResumeIngestWorker summarizes and stores one queued résumé.
type ResumeIngestWorker struct {
	river.WorkerDefaults[jobs.IngestJobArgs]

	storer textStorer
}

// NewResumeIngestWorker creates a worker backed by storer.
func NewResumeIngestWorker(storer textStorer) *ResumeIngestWorker {
	return &ResumeIngestWorker{storer: storer}
}

// Timeout limits how long one attempt can run.
func (w *ResumeIngestWorker) Timeout(*river.Job[jobs.IngestJobArgs]) time.Duration {
	return ResumeIngestTimeout
}

// Work stores the résumé. Summarization and storage failures are returned so River retries them;
// a duplicate name completes the job without storing.
func (w *ResumeIngestWorker) Work(ctx context.Context, job *river.Job[jobs.IngestJobArgs]) error {
	args := job.Args

	slog.DebugContext(ctx, "processing ingest job",
		"job_id", job.ID,
		"filename", args.Filename,
		"text_length", len(args.RawText),
	)

	result, err := w.storer.StoreText(ctx, service.StoreRequest{
		Filename:   args.Filename,
		RawText:    args.RawText,
		UploadedBy: args.UploadedBy,
		Overwrite:  args.Overwrite,
	})
	if err != nil {
		return err
	}

	if result.Status == models.IngestStatusDuplicate {
		slog.InfoContext(ctx, "ingest job skipped duplicate candidate",
			"job_id", job.ID,
			"filename", args.Filename,
			"name", result.Name,
			"existing_ids", result.ExistingIDs,
		)

		return nil
	}

	slog.InfoContext(ctx, "résumé ingested",
		"job_id", job.ID,
		"filename", args.Filename,
		"candidate_id", result.CandidateID,
	)

	return nil
}

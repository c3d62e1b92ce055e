package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/riverqueue/river/rivertype"
)

// ErrJobNotFound is returned by a JobReader when no job has the given id.
var ErrJobNotFound = errors.New("job not found")

// JobInserter enqueues ingestion jobs without callers depending on River directly.
type JobInserter interface {
	// InsertIngestJob enqueues one résumé and returns the job id.
	InsertIngestJob(ctx context.Context, args IngestJobArgs) (int64, error)
}

// JobStatus is the externally visible state of an ingestion job.
type JobStatus struct {
	ID          int64
	State       string
	Filename    string
	Attempt     int
	MaxAttempts int
	Errors      []string
	CreatedAt   time.Time
	FinalizedAt *time.Time
}

// JobReader looks up ingestion jobs by id.
type JobReader interface {
	GetIngestJob(ctx context.Context, id int64) (*JobStatus, error)
}

// statusFromRow converts a River job row. Only ingestion jobs are exposed.
func statusFromRow(row *rivertype.JobRow, filename string) *JobStatus {
	status := &JobStatus{
		ID:          row.ID,
		State:       string(row.State),
		Filename:    filename,
		Attempt:     row.Attempt,
		MaxAttempts: row.MaxAttempts,
		CreatedAt:   row.CreatedAt,
		FinalizedAt: row.FinalizedAt,
	}

	for _, e := range row.Errors {
		status.Errors = append(status.Errors, e.Error)
	}

	return status
}

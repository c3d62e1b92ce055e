package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// riverClient is the subset of *river.Client used for enqueueing and lookups.
type riverClient interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
	JobGet(ctx context.Context, id int64) (*rivertype.JobRow, error)
}

var _ riverClient = (*river.Client[pgx.Tx])(nil)

// RiverJobInserter implements JobInserter and JobReader with a River client.
type RiverJobInserter struct {
	client      riverClient
	maxAttempts int
}

// NewRiverJobInserter creates a River-based inserter. maxAttempts <= 0 uses River's default.
func NewRiverJobInserter(client riverClient, maxAttempts int) *RiverJobInserter {
	return &RiverJobInserter{client: client, maxAttempts: maxAttempts}
}

// InsertIngestJob enqueues args on the ingest queue.
func (r *RiverJobInserter) InsertIngestJob(ctx context.Context, args IngestJobArgs) (int64, error) {
	res, err := r.client.Insert(ctx, args, &river.InsertOpts{
		Queue:       IngestQueueName,
		MaxAttempts: r.maxAttempts,
	})
	if err != nil {
		return 0, fmt.Errorf("insert ingest job: %w", err)
	}

	return res.Job.ID, nil
}

// GetIngestJob returns the state of an ingestion job. Jobs of other kinds are reported as not found.
func (r *RiverJobInserter) GetIngestJob(ctx context.Context, id int64) (*JobStatus, error) {
	row, err := r.client.JobGet(ctx, id)
	if errors.Is(err, rivertype.ErrNotFound) {
		return nil, ErrJobNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get ingest job %d: %w", id, err)
	}

	if row.Kind != (IngestJobArgs{}).Kind() {
		return nil, ErrJobNotFound
	}

	var args IngestJobArgs
	if err := json.Unmarshal(row.EncodedArgs, &args); err != nil {
		return nil, fmt.Errorf("decode ingest job %d: %w", id, err)
	}

	return statusFromRow(row, args.Filename), nil
}

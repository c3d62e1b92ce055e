package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRiver struct {
	insertArgs river.JobArgs
	insertOpts *river.InsertOpts
	insertErr  error
	row        *rivertype.JobRow
	getErr     error
}

func (f *fakeRiver) Insert(_ context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	f.insertArgs = args
	f.insertOpts = opts

	if f.insertErr != nil {
		return nil, f.insertErr
	}

	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: 42}}, nil
}

func (f *fakeRiver) JobGet(_ context.Context, _ int64) (*rivertype.JobRow, error) {
	return f.row, f.getErr
}

func TestIngestJobArgs_Kind(t *testing.T) {
	assert.Equal(t, "resume_ingest", IngestJobArgs{}.Kind())
}

func TestRiverJobInserter_InsertIngestJob(t *testing.T) {
	t.Run("enqueues on the ingest queue", func(t *testing.T) {
		fake := &fakeRiver{}
		ins := NewRiverJobInserter(fake, 3)

		id, err := ins.InsertIngestJob(context.Background(), IngestJobArgs{Filename: "jane.pdf", RawText: "text", UploadedBy: "alice"})

		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.Equal(t, IngestQueueName, fake.insertOpts.Queue)
		assert.Equal(t, 3, fake.insertOpts.MaxAttempts)
		assert.Equal(t, "jane.pdf", fake.insertArgs.(IngestJobArgs).Filename)
	})

	t.Run("wraps insert errors", func(t *testing.T) {
		ins := NewRiverJobInserter(&fakeRiver{insertErr: errors.New("db down")}, 3)

		_, err := ins.InsertIngestJob(context.Background(), IngestJobArgs{})
		assert.ErrorContains(t, err, "insert ingest job: db down")
	})
}

func TestRiverJobInserter_GetIngestJob(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	encoded, _ := json.Marshal(IngestJobArgs{Filename: "jane.pdf"})

	t.Run("maps the job row", func(t *testing.T) {
		fake := &fakeRiver{row: &rivertype.JobRow{
			ID: 7, Kind: "resume_ingest", State: rivertype.JobStateRetryable, Attempt: 1, MaxAttempts: 3,
			CreatedAt: created, EncodedArgs: encoded,
			Errors: []rivertype.AttemptError{{Error: "summarization: rate limited"}},
		}}

		status, err := NewRiverJobInserter(fake, 3).GetIngestJob(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, &JobStatus{
			ID: 7, State: "retryable", Filename: "jane.pdf", Attempt: 1, MaxAttempts: 3,
			Errors: []string{"summarization: rate limited"}, CreatedAt: created,
		}, status)
	})

	t.Run("missing job", func(t *testing.T) {
		_, err := NewRiverJobInserter(&fakeRiver{getErr: rivertype.ErrNotFound}, 3).GetIngestJob(context.Background(), 1)
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("other job kinds are hidden", func(t *testing.T) {
		fake := &fakeRiver{row: &rivertype.JobRow{ID: 1, Kind: "other", EncodedArgs: []byte("{}")}}

		_, err := NewRiverJobInserter(fake, 3).GetIngestJob(context.Background(), 1)
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

type fakeRow struct {
	count int
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	*(dest[0].(*int)) = r.count

	return nil
}

type fakeQuerier struct {
	row   fakeRow
	calls atomic.Int32
	queue atomic.Value
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	q.calls.Add(1)
	q.queue.Store(args[0])

	return q.row
}

func TestQueueDepth(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{count: 4}}

	n, err := QueueDepth(context.Background(), q, IngestQueueName)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, IngestQueueName, q.queue.Load())
}

func TestRunQueueDepthPoller(t *testing.T) {
	t.Run("reports immediately and stops with context", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{count: 9}}
		ctx, cancel := context.WithCancel(context.Background())

		var got atomic.Int64

		done := make(chan struct{})

		go func() {
			RunQueueDepthPoller(ctx, q, time.Hour, func(d int) { got.Store(int64(d)) })
			close(done)
		}()

		assert.Eventually(t, func() bool { return got.Load() == 9 }, time.Second, time.Millisecond)
		cancel()
		<-done
	})

	t.Run("query errors leave the gauge untouched", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{err: errors.New("boom")}}
		ctx, cancel := context.WithCancel(context.Background())

		called := false

		go func() {
			assert.Eventually(t, func() bool { return q.calls.Load() > 0 }, time.Second, time.Millisecond)
			cancel()
		}()

		RunQueueDepthPoller(ctx, q, time.Hour, func(int) { called = true })
		assert.False(t, called)
	})
}

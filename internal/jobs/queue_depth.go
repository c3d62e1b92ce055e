package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river/rivertype"
)

// QueueDepthInterval is how often RunQueueDepthPoller samples the queue.
const QueueDepthInterval = 15 * time.Second

// rowQuerier is satisfied by *pgxpool.Pool.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QueueDepth counts jobs waiting on queue.
func QueueDepth(ctx context.Context, db rowQuerier, queue string) (int, error) {
	var count int

	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM river_job WHERE queue = $1 AND state IN ($2, $3, $4)`,
		queue,
		rivertype.JobStateAvailable, rivertype.JobStateRetryable, rivertype.JobStateScheduled,
	).Scan(&count)

	return count, err
}

// RunQueueDepthPoller reports the ingest queue depth to set until ctx is done.
func RunQueueDepthPoller(ctx context.Context, db rowQuerier, interval time.Duration, set func(depth int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	update := func() {
		count, err := QueueDepth(ctx, db, IngestQueueName)
		if err != nil {
			if ctx.Err() == nil {
				slog.WarnContext(ctx, "river queue depth poll failed", "error", err)
			}

			return
		}

		set(count)
	}

	update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

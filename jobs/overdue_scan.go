package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/vitalis-health/vitalis/internal/jobs"
)

// OverdueScanJob counts receivables past their due date and logs the
// exposure so operators catch slippage between dashboard refreshes.
type OverdueScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob wires dependencies for the scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &OverdueScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overdue scan tasks.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Pool == nil {
		return errors.New("overdue scan: handler not configured")
	}

	tracker := j.Metrics.Track(TaskOverdueScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	asOf := j.clock().Truncate(24 * time.Hour)
	row := j.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(outstanding_amount), 0)
		FROM receivables
		WHERE status IN ('OPEN', 'PARTIAL') AND due_date < $1`, asOf)

	var (
		count int64
		total float64
	)
	if err := row.Scan(&count, &total); err != nil {
		return err
	}

	if count == 0 {
		j.Logger.Info("overdue scan clean", slog.Time("as_of", asOf))
		return nil
	}
	j.Logger.Warn("overdue receivables found",
		slog.Time("as_of", asOf),
		slog.Int64("count", count),
		slog.Float64("outstanding_total", total),
	)
	return nil
}

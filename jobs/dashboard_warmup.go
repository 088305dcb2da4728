package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vitalis-health/vitalis/internal/dashboard"
	jobmetrics "github.com/vitalis-health/vitalis/internal/jobs"
)

// DashboardWarmupJob pre-populates dashboard caches so the first morning
// request does not pay the aggregation cost.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(svc *dashboard.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &DashboardWarmupJob{
		Dashboard: svc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}

	tracker := j.Metrics.Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.clock()
	asOf := now.Truncate(24 * time.Hour)

	if _, err := j.Dashboard.AgingBuckets(ctx, asOf); err != nil {
		j.Logger.Error("warm aging buckets", slog.Any("error", err))
		return err
	}
	if _, err := j.Dashboard.Summary(ctx, now.AddDate(0, -1, 0), now); err != nil {
		j.Logger.Error("warm revenue summary", slog.Any("error", err))
		return err
	}

	j.Logger.Info("dashboard caches warmed", slog.Time("as_of", asOf))
	return nil
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/quiltfolk/quiltfolk/internal/jobs"
)

// SessionReaperJob purges expired rows from the session audit table.
// Redis expires the live sessions on its own; this keeps the Postgres
// mirror from growing without bound.
type SessionReaperJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionReaperJob wires dependencies for the reaper.
func NewSessionReaperJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionReaperJob {
	return &SessionReaperJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskTypeSessionReap tasks.
func (j *SessionReaperJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("session reaper: handler not configured")
	}
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeSessionReap)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	tag, err := j.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, j.now())
	if err != nil {
		resultErr = err
		return resultErr
	}
	j.logger().Info("session reap complete", slog.Int64("deleted", tag.RowsAffected()))
	return resultErr
}

func (j *SessionReaperJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSessionReap))
	}
	return slog.Default().With(slog.String("job", TaskTypeSessionReap))
}

func (j *SessionReaperJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SessionReaperJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

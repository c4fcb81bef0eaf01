package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/quiltfolk/quiltfolk/internal/jobs"
	"github.com/quiltfolk/quiltfolk/internal/subscription"
)

// trialReminderWindow is how close to expiry a trial must be before we
// nudge the member.
const trialReminderWindow = 3 * 24 * time.Hour

// TrialReminderJob mails members whose trial is about to run out.
type TrialReminderJob struct {
	Pool    *pgxpool.Pool
	Client  Enqueuer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewTrialReminderJob wires dependencies for the reminder sweep.
func NewTrialReminderJob(pool *pgxpool.Pool, client Enqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *TrialReminderJob {
	return &TrialReminderJob{
		Pool:    pool,
		Client:  client,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskTypeTrialReminder tasks.
func (j *TrialReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Client == nil {
		return errors.New("trial reminder: handler not configured")
	}
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeTrialReminder)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	rows, err := j.Pool.Query(ctx, `
		SELECT id, email, first_name, trial_ends_at
		FROM users
		WHERE subscription_status = $1
		  AND trial_reminder_sent_at IS NULL
		  AND trial_ends_at IS NOT NULL
		  AND trial_ends_at > $2
		  AND trial_ends_at <= $3
		ORDER BY trial_ends_at`,
		subscription.StatusTrial, now, now.Add(trialReminderWindow))
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	type candidate struct {
		id, email, firstName string
		trialEndsAt          time.Time
	}
	var due []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.email, &c.firstName, &c.trialEndsAt); err != nil {
			resultErr = err
			return resultErr
		}
		due = append(due, c)
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	reminded := 0
	for _, c := range due {
		daysLeft := subscription.TrialDaysLeft(&c.trialEndsAt, now)
		subject, html := trialReminderEmail(c.firstName, daysLeft)
		if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{To: c.email, Subject: subject, HTML: html}); err != nil {
			resultErr = err
			j.logger().Error("enqueue trial reminder", slog.String("user_id", c.id), slog.Any("error", err))
			return resultErr
		}
		if _, err := j.Pool.Exec(ctx,
			`UPDATE users SET trial_reminder_sent_at = $2 WHERE id = $1`, c.id, now); err != nil {
			resultErr = err
			return resultErr
		}
		reminded++
	}

	j.logger().Info("trial reminder sweep complete", slog.Int("reminded", reminded))
	return resultErr
}

// trialReminderEmail renders the reminder subject and body.
func trialReminderEmail(firstName string, daysLeft int) (subject, html string) {
	switch daysLeft {
	case 1:
		subject = "Your Quiltfolk trial ends tomorrow"
	default:
		subject = fmt.Sprintf("Your Quiltfolk trial ends in %d days", daysLeft)
	}
	html = fmt.Sprintf(
		"<p>Hi %s,</p><p>Your free trial ends in %d day(s). Subscribe to keep downloading patterns and sharing your projects.</p>",
		firstName, daysLeft)
	return subject, html
}

func (j *TrialReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeTrialReminder))
	}
	return slog.Default().With(slog.String("job", TaskTypeTrialReminder))
}

func (j *TrialReminderJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *TrialReminderJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/quiltfolk/quiltfolk/internal/jobs"
)

const digestThreadLimit = 5

// WeeklyDigestJob mails a roundup of the most active forum threads to
// members who opted into the digest.
type WeeklyDigestJob struct {
	Pool    *pgxpool.Pool
	Client  Enqueuer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewWeeklyDigestJob wires dependencies for the digest.
func NewWeeklyDigestJob(pool *pgxpool.Pool, client Enqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *WeeklyDigestJob {
	return &WeeklyDigestJob{
		Pool:    pool,
		Client:  client,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// digestThread is one line item of the weekly roundup.
type digestThread struct {
	Title      string
	ReplyCount int
}

// Handle processes TaskTypeWeeklyDigest tasks.
func (j *WeeklyDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Client == nil {
		return errors.New("weekly digest: handler not configured")
	}
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeWeeklyDigest)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	threads, err := j.fetchTopThreads(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		resultErr = err
		return resultErr
	}
	if len(threads) == 0 {
		j.logger().Info("no forum activity this week, skipping digest")
		return resultErr
	}

	subject, htmlBody := digestEmail(threads)

	rows, err := j.Pool.Query(ctx,
		`SELECT email FROM users WHERE digest_opt_in ORDER BY email`)
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	var recipients []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			resultErr = err
			return resultErr
		}
		recipients = append(recipients, email)
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	for _, to := range recipients {
		if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, HTML: htmlBody}); err != nil {
			resultErr = err
			j.logger().Error("enqueue digest", slog.String("to", to), slog.Any("error", err))
			return resultErr
		}
	}

	j.logger().Info("weekly digest enqueued",
		slog.Int("threads", len(threads)), slog.Int("recipients", len(recipients)))
	return resultErr
}

func (j *WeeklyDigestJob) fetchTopThreads(ctx context.Context, since time.Time) ([]digestThread, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT t.title, count(p.id)
		FROM forum_threads t
		JOIN forum_posts p ON p.thread_id = t.id AND p.created_at >= $1
		GROUP BY t.id, t.title
		ORDER BY count(p.id) DESC, t.last_post_at DESC
		LIMIT $2`, since, digestThreadLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []digestThread
	for rows.Next() {
		var d digestThread
		if err := rows.Scan(&d.Title, &d.ReplyCount); err != nil {
			return nil, err
		}
		threads = append(threads, d)
	}
	return threads, rows.Err()
}

// digestEmail renders the digest subject and body.
func digestEmail(threads []digestThread) (subject, htmlBody string) {
	subject = "This week on the Quiltfolk forums"
	var b strings.Builder
	b.WriteString("<p>The busiest conversations this week:</p><ul>")
	for _, t := range threads {
		fmt.Fprintf(&b, "<li>%s (%d posts)</li>", html.EscapeString(t.Title), t.ReplyCount)
	}
	b.WriteString("</ul>")
	return subject, b.String()
}

func (j *WeeklyDigestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeWeeklyDigest))
	}
	return slog.Default().With(slog.String("job", TaskTypeWeeklyDigest))
}

func (j *WeeklyDigestJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *WeeklyDigestJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/quiltfolk/quiltfolk/internal/jobs"
	"github.com/quiltfolk/quiltfolk/internal/platform/mail"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SendEmailJob delivers queued transactional email through the provider.
type SendEmailJob struct {
	Sender  mail.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSendEmailJob wires dependencies for the mail handler.
func NewSendEmailJob(sender mail.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *SendEmailJob {
	return &SendEmailJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sender == nil {
		return errors.New("send email: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeSendEmail)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Sender.Send(ctx, payload.To, payload.Subject, payload.HTML); err != nil {
		resultErr = err
		j.logger().Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return resultErr
}

func (j *SendEmailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskTypeSendEmail))
}

func (j *SendEmailJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiltfolk/quiltfolk/internal/app"
	"github.com/quiltfolk/quiltfolk/internal/platform/mail"
	"github.com/quiltfolk/quiltfolk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	sender := mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)

	mailJob := jobs.NewSendEmailJob(sender, logger, nil)
	reminderJob := jobs.NewTrialReminderJob(pool, client, logger, nil)
	reaperJob := jobs.NewSessionReaperJob(pool, logger, nil)
	digestJob := jobs.NewWeeklyDigestJob(pool, client, logger, nil)

	now := time.Now().UTC()
	reminderTask, err := jobs.NewTrialReminderTask(now)
	if err != nil {
		logger.Error("build trial reminder task", slog.Any("error", err))
		os.Exit(1)
	}
	reapTask, err := jobs.NewSessionReapTask(now)
	if err != nil {
		logger.Error("build session reap task", slog.Any("error", err))
		os.Exit(1)
	}
	digestTask, err := jobs.NewWeeklyDigestTask(now)
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskTypeTrialReminder, Handler: reminderJob.Handle},
			{Type: jobs.TaskTypeSessionReap, Handler: reaperJob.Handle},
			{Type: jobs.TaskTypeWeeklyDigest, Handler: digestJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 9 * * *", Task: reminderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 * * * *", Task: reapTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "0 16 * * 5", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeTrialReminder sweeps for trials about to expire.
	TaskTypeTrialReminder = "trial:reminder"
	// TaskTypeSessionReap purges expired session audit rows.
	TaskTypeSessionReap = "sessions:reap"
	// TaskTypeWeeklyDigest mails the community digest to opted-in members.
	TaskTypeWeeklyDigest = "digest:weekly"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault)), nil
}

// ScheduledPayload carries scheduling metadata for cron-driven sweeps.
type ScheduledPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTrialReminderTask constructs the nightly trial-reminder sweep task.
func NewTrialReminderTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTrialReminder, body, asynq.Queue(QueueDefault)), nil
}

// NewSessionReapTask constructs the hourly session-reaper task.
func NewSessionReapTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionReap, body, asynq.Queue(QueueDefault)), nil
}

// NewWeeklyDigestTask constructs the weekly digest task.
func NewWeeklyDigestTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWeeklyDigest, body, asynq.Queue(QueueDefault)), nil
}

package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	sent []struct{ to, subject, html string }
	err  error
}

func (m *mockSender) Send(_ context.Context, to, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ to, subject, html string }{to, subject, html})
	return nil
}

func TestSendEmailJob(t *testing.T) {
	sender := &mockSender{}
	job := NewSendEmailJob(sender, nil, nil)

	task, err := NewSendEmailTask(SendEmailPayload{
		To:      "alice@example.com",
		Subject: "Welcome to Quiltfolk",
		HTML:    "<p>Hello!</p>",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "alice@example.com", sender.sent[0].to)
	assert.Equal(t, "Welcome to Quiltfolk", sender.sent[0].subject)
}

func TestSendEmailJobSkipsMalformedPayload(t *testing.T) {
	sender := &mockSender{}
	job := NewSendEmailJob(sender, nil, nil)

	task := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, sender.sent)
}

func TestSendEmailJobSkipsEmptyRecipient(t *testing.T) {
	sender := &mockSender{}
	job := NewSendEmailJob(sender, nil, nil)

	task, err := NewSendEmailTask(SendEmailPayload{Subject: "no recipient"})
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
	assert.Empty(t, sender.sent)
}

func TestTrialReminderEmail(t *testing.T) {
	subject, html := trialReminderEmail("Alice", 3)
	assert.Equal(t, "Your Quiltfolk trial ends in 3 days", subject)
	assert.Contains(t, html, "Alice")

	subject, _ = trialReminderEmail("Bob", 1)
	assert.Equal(t, "Your Quiltfolk trial ends tomorrow", subject)
}

func TestDigestEmail(t *testing.T) {
	subject, html := digestEmail([]digestThread{
		{Title: "Binding by hand vs machine", ReplyCount: 12},
		{Title: "<script>alert(1)</script>", ReplyCount: 2},
	})
	assert.Equal(t, "This week on the Quiltfolk forums", subject)
	assert.Contains(t, html, "Binding by hand vs machine (12 posts)")
	assert.NotContains(t, html, "<script>")
}

func TestScheduledTaskPayloadsRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	task, err := NewTrialReminderTask(at)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeTrialReminder, task.Type())

	var payload ScheduledPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.True(t, payload.ScheduledFor.Equal(at))
}

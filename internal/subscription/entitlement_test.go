package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActive(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name        string
		status      string
		trialEndsAt *time.Time
		want        bool
	}{
		{"trial with future end", StatusTrial, &future, true},
		{"trial with past end", StatusTrial, &past, false},
		{"trial with no end date", StatusTrial, nil, false},
		{"active ignores trial end", StatusActive, &past, true},
		{"active with no trial end", StatusActive, nil, true},
		{"expired", StatusExpired, &future, false},
		{"cancelled", StatusCancelled, &future, false},
		{"unknown status", "comped", &future, false},
		{"empty status", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Active(tt.status, tt.trialEndsAt, now))
		})
	}
}

func TestActiveBoundary(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	// A trial ending exactly now is no longer entitled.
	endsNow := now
	assert.False(t, Active(StatusTrial, &endsNow, now))

	justAfter := now.Add(time.Second)
	assert.True(t, Active(StatusTrial, &justAfter, now))
}

func TestTrialDaysLeft(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, TrialDaysLeft(nil, now))

	past := now.Add(-time.Hour)
	assert.Equal(t, 0, TrialDaysLeft(&past, now))

	halfDay := now.Add(12 * time.Hour)
	assert.Equal(t, 1, TrialDaysLeft(&halfDay, now))

	fullWindow := now.Add(TrialPeriod)
	assert.Equal(t, 14, TrialDaysLeft(&fullWindow, now))
}

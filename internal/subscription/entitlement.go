// Package subscription derives effective entitlement from the billing
// fields stored on a user record. It is a leaf package with no storage
// access so the same rules run on the serving side (gating premium
// features) and the display side (showing "trial ends in N days").
package subscription

import "time"

// TrialPeriod is the length of the free trial granted at registration.
// Registration and display code must both read this constant; the
// window is never re-derived at call sites.
const TrialPeriod = 14 * 24 * time.Hour

// Subscription status values stored on the user record. Transitions out
// of trial are driven by the external billing collaborator.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Plan identifiers correlated with the billing processor.
const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// Active reports whether the given billing state grants entitlement at
// the given instant:
//   - an active subscription is always entitled, and
//   - a trial is entitled only while trialEndsAt is present and in the
//     future.
//
// Every other combination, including a trial with a missing or past
// trialEndsAt, grants nothing.
func Active(status string, trialEndsAt *time.Time, now time.Time) bool {
	switch status {
	case StatusActive:
		return true
	case StatusTrial:
		return trialEndsAt != nil && trialEndsAt.After(now)
	default:
		return false
	}
}

// TrialDaysLeft returns the number of whole or partial days remaining in
// the trial window, zero when the trial has ended or was never set.
func TrialDaysLeft(trialEndsAt *time.Time, now time.Time) int {
	if trialEndsAt == nil || !trialEndsAt.After(now) {
		return 0
	}
	days := int(trialEndsAt.Sub(now) / (24 * time.Hour))
	if trialEndsAt.Sub(now)%(24*time.Hour) > 0 {
		days++
	}
	return days
}

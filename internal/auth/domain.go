package auth

import "time"

// MinPasswordLength is the minimum accepted password length at
// registration. Defined once so validation and client hints stay in
// sync.
const MinPasswordLength = 8

// Account status values. The status records what the member signed up
// as and never changes afterwards.
const (
	StatusQuilter  = "quilter"
	StatusDesigner = "designer"
)

// User is the full account record, including credential and billing
// fields. It never crosses the trust boundary; handlers return
// PublicUser instead.
type User struct {
	ID                   string
	Email                string
	PasswordHash         string
	FirstName            string
	DisplayName          string
	Status               string
	SubscriptionStatus   string
	SubscriptionPlan     string
	TrialEndsAt          *time.Time
	StripeCustomerID     string
	StripeSubscriptionID string
	NewsletterOptIn      bool
	DigestOptIn          bool
	LastLoginAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PublicUser is the only shape of a user record allowed across the
// trust boundary. The password hash has no field here, so no endpoint
// can leak it by forgetting to strip it.
type PublicUser struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"firstName"`
	Status             string     `json:"status"`
	SubscriptionStatus string     `json:"subscriptionStatus"`
	TrialEndsAt        *time.Time `json:"trialEndsAt"`
	SubscriptionPlan   string     `json:"subscriptionPlan"`
	DisplayName        string     `json:"displayName"`
}

// Public projects the user onto its externally visible subset.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		Status:             u.Status,
		SubscriptionStatus: u.SubscriptionStatus,
		TrialEndsAt:        u.TrialEndsAt,
		SubscriptionPlan:   u.SubscriptionPlan,
		DisplayName:        u.DisplayName,
	}
}

package users

import "time"

// Profile is the public view of a member.
type Profile struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	Status       string    `json:"status"`
	ProjectCount int       `json:"projectCount"`
	PatternCount int       `json:"patternCount"`
	MemberSince  time.Time `json:"memberSince"`
}

// Preferences are the member's notification opt-ins.
type Preferences struct {
	NewsletterOptIn bool `json:"newsletterOptIn"`
	DigestOptIn     bool `json:"digestOptIn"`
}

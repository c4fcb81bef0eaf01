package projects

import "time"

// Project lifecycle states.
const (
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// Project is a member's quilt project shown in the gallery.
type Project struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	OwnerName  string    `json:"ownerName"`
	PatternID  *string   `json:"patternId"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	PhotoURL   string    `json:"photoUrl"`
	Status     string    `json:"status"`
	LikesCount int       `json:"likesCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

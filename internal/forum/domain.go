package forum

import "time"

// Category groups threads by topic.
type Category struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ThreadCount int    `json:"threadCount"`
}

// Thread is a discussion started by a member.
type Thread struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"categoryId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Title      string    `json:"title"`
	ReplyCount int       `json:"replyCount"`
	LastPostAt time.Time `json:"lastPostAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Post is a single message inside a thread. The first post carries the
// thread's opening body.
type Post struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"threadId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

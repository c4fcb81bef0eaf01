package forum

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

type mockRepo struct {
	categories map[string]*Category
	threads    map[string]*Thread
	posts      map[string][]Post
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		categories: map[string]*Category{},
		threads:    map[string]*Thread{},
		posts:      map[string][]Post{},
	}
}

func (m *mockRepo) ListCategories(_ context.Context) ([]Category, error) {
	var out []Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepo) GetCategoryBySlug(_ context.Context, slug string) (*Category, error) {
	c, ok := m.categories[slug]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockRepo) ListThreads(_ context.Context, categoryID string, page, perPage int) ([]Thread, int, error) {
	var out []Thread
	for _, t := range m.threads {
		if t.CategoryID == categoryID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) GetThread(_ context.Context, id string) (*Thread, error) {
	t, ok := m.threads[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *mockRepo) ListPosts(_ context.Context, threadID string) ([]Post, error) {
	return m.posts[threadID], nil
}

func (m *mockRepo) CreateThread(_ context.Context, thread *Thread, opening *Post) error {
	copied := *thread
	m.threads[thread.ID] = &copied
	m.posts[thread.ID] = append(m.posts[thread.ID], *opening)
	return nil
}

func (m *mockRepo) CreatePost(_ context.Context, post *Post) error {
	m.posts[post.ThreadID] = append(m.posts[post.ThreadID], *post)
	t := m.threads[post.ThreadID]
	t.ReplyCount++
	t.LastPostAt = post.CreatedAt
	return nil
}

func newTestService(repo *mockRepo, now time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func TestStartThread(t *testing.T) {
	repo := newMockRepo()
	repo.categories["techniques"] = &Category{ID: "cat-1", Slug: "techniques", Name: "Techniques"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	thread, err := svc.StartThread(context.Background(), "user-1", "Alice", StartThreadInput{
		CategorySlug: "techniques",
		Title:        "  Paper piecing tips  ",
		Body:         "How do you keep points sharp?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Paper piecing tips", thread.Title)
	assert.Equal(t, "cat-1", thread.CategoryID)
	assert.Equal(t, 0, thread.ReplyCount)
	assert.Equal(t, now, thread.LastPostAt)

	posts := repo.posts[thread.ID]
	require.Len(t, posts, 1)
	assert.Equal(t, "How do you keep points sharp?", posts[0].Body)
	assert.Equal(t, "user-1", posts[0].AuthorID)
}

func TestStartThreadValidation(t *testing.T) {
	repo := newMockRepo()
	repo.categories["general"] = &Category{ID: "cat-1", Slug: "general"}
	svc := newTestService(repo, time.Now().UTC())

	cases := []struct {
		name  string
		input StartThreadInput
	}{
		{"empty title", StartThreadInput{CategorySlug: "general", Title: "   ", Body: "hello"}},
		{"empty body", StartThreadInput{CategorySlug: "general", Title: "hello", Body: ""}},
		{"title too long", StartThreadInput{CategorySlug: "general", Title: strings.Repeat("x", maxTitleLength+1), Body: "hello"}},
		{"body too long", StartThreadInput{CategorySlug: "general", Title: "hello", Body: strings.Repeat("x", maxBodyLength+1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.StartThread(context.Background(), "user-1", "Alice", tc.input)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
	assert.Empty(t, repo.threads)
}

func TestStartThreadUnknownCategory(t *testing.T) {
	svc := newTestService(newMockRepo(), time.Now().UTC())

	_, err := svc.StartThread(context.Background(), "user-1", "Alice", StartThreadInput{
		CategorySlug: "nope", Title: "hi", Body: "there",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReplyBumpsThread(t *testing.T) {
	repo := newMockRepo()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.threads["thread-1"] = &Thread{
		ID: "thread-1", CategoryID: "cat-1", AuthorID: "user-1",
		Title: "Show and tell", ReplyCount: 0, LastPostAt: created, CreatedAt: created,
	}
	replyAt := created.Add(2 * time.Hour)
	svc := newTestService(repo, replyAt)

	post, err := svc.Reply(context.Background(), "thread-1", "user-2", "Bob", "Lovely work!")
	require.NoError(t, err)
	assert.Equal(t, "Lovely work!", post.Body)

	thread := repo.threads["thread-1"]
	assert.Equal(t, 1, thread.ReplyCount)
	assert.Equal(t, replyAt, thread.LastPostAt)
}

func TestReplyUnknownThread(t *testing.T) {
	svc := newTestService(newMockRepo(), time.Now().UTC())

	_, err := svc.Reply(context.Background(), "missing", "user-2", "Bob", "hello")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

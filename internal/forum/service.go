package forum

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 20000
)

// Service handles forum business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Categories lists all forum categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// Threads returns a page of threads for a category slug.
func (s *Service) Threads(ctx context.Context, categorySlug string, page, perPage int) (*Category, []Thread, shared.Pagination, error) {
	category, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, nil, shared.Pagination{}, err
	}
	threads, total, err := s.repo.ListThreads(ctx, category.ID, page, perPage)
	if err != nil {
		return nil, nil, shared.Pagination{}, err
	}
	return category, threads, shared.NewPagination(page, perPage, total), nil
}

// Thread fetches a thread together with its posts.
func (s *Service) Thread(ctx context.Context, id string) (*Thread, []Post, error) {
	thread, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.repo.ListPosts(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return thread, posts, nil
}

// StartThreadInput carries the fields for a new thread.
type StartThreadInput struct {
	CategorySlug string
	Title        string
	Body         string
}

// StartThread opens a new thread with its opening post.
func (s *Service) StartThread(ctx context.Context, authorID, authorName string, in StartThreadInput) (*Thread, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", httpx.ErrValidation)
	}
	if len(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be at most %d characters", httpx.ErrValidation, maxTitleLength)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", httpx.ErrValidation)
	}
	if len(body) > maxBodyLength {
		return nil, fmt.Errorf("%w: body must be at most %d characters", httpx.ErrValidation, maxBodyLength)
	}

	category, err := s.repo.GetCategoryBySlug(ctx, in.CategorySlug)
	if err != nil {
		return nil, err
	}

	now := s.now()
	thread := &Thread{
		ID:         uuid.NewString(),
		CategoryID: category.ID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Title:      title,
		ReplyCount: 0,
		LastPostAt: now,
		CreatedAt:  now,
	}
	opening := &Post{
		ID:         uuid.NewString(),
		ThreadID:   thread.ID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		CreatedAt:  now,
	}
	if err := s.repo.CreateThread(ctx, thread, opening); err != nil {
		return nil, err
	}
	return thread, nil
}

// Reply appends a post to an existing thread and bumps its counters.
func (s *Service) Reply(ctx context.Context, threadID, authorID, authorName, body string) (*Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", httpx.ErrValidation)
	}
	if len(body) > maxBodyLength {
		return nil, fmt.Errorf("%w: body must be at most %d characters", httpx.ErrValidation, maxBodyLength)
	}

	if _, err := s.repo.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	post := &Post{
		ID:         uuid.NewString(),
		ThreadID:   threadID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

package patterns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

const popularLimit = 12

// Service handles pattern business logic.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// List returns a filtered, paginated listing with metadata.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Pattern, shared.Pagination, error) {
	patterns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return patterns, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Popular returns the most favorited patterns, served from cache.
func (s *Service) Popular(ctx context.Context) ([]Pattern, error) {
	return s.cache.Popular(ctx, func(ctx context.Context) ([]Pattern, error) {
		return s.repo.ListPopular(ctx, popularLimit)
	})
}

// Get fetches one pattern by slug.
func (s *Service) Get(ctx context.Context, slug string) (*Pattern, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// CreateInput carries the fields a designer submits for a new pattern.
type CreateInput struct {
	Title       string
	Description string
	Category    string
	Difficulty  string
	PieceCount  int
	Premium     bool
	ImageURL    string
	PDFURL      string
}

// Create publishes a new pattern for the given designer.
func (s *Service) Create(ctx context.Context, designerID string, in CreateInput) (*Pattern, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", httpx.ErrValidation)
	}
	switch in.Difficulty {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return nil, fmt.Errorf("%w: difficulty must be beginner, intermediate or advanced", httpx.ErrValidation)
	}
	if in.Category == "" {
		return nil, fmt.Errorf("%w: category is required", httpx.ErrValidation)
	}

	now := s.now()
	pattern := &Pattern{
		ID:          uuid.NewString(),
		DesignerID:  designerID,
		Title:       title,
		Slug:        Slugify(title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		PieceCount:  in.PieceCount,
		Premium:     in.Premium,
		ImageURL:    in.ImageURL,
		PDFURL:      in.PDFURL,
		PublishedAt: &now,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, pattern); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return pattern, nil
}

// Download returns the file reference for a pattern. The premium gate
// is enforced by middleware before this is reached; free patterns pass
// through for everyone.
func (s *Service) Download(ctx context.Context, slug string) (*Download, error) {
	pattern, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &Download{Slug: pattern.Slug, PDFURL: pattern.PDFURL}, nil
}

// Favorite records a favorite for the user.
func (s *Service) Favorite(ctx context.Context, slug, userID string) error {
	pattern, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.repo.AddFavorite(ctx, pattern.ID, userID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Unfavorite removes a favorite for the user.
func (s *Service) Unfavorite(ctx context.Context, slug, userID string) error {
	pattern, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveFavorite(ctx, pattern.ID, userID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Slugify lowers a title into a URL slug.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

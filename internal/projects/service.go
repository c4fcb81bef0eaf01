package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// Service handles project gallery business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Gallery returns a page of the public gallery.
func (s *Service) Gallery(ctx context.Context, page, perPage int) ([]Project, shared.Pagination, error) {
	projects, total, err := s.repo.ListGallery(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return projects, shared.NewPagination(page, perPage, total), nil
}

// ByOwner returns all projects of one member.
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]Project, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateInput carries the fields for a new project.
type CreateInput struct {
	PatternID *string
	Title     string
	Notes     string
	PhotoURL  string
}

// Create starts a new project for the owner.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", httpx.ErrValidation)
	}

	now := s.now()
	project := &Project{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		PatternID: in.PatternID,
		Title:     title,
		Notes:     strings.TrimSpace(in.Notes),
		PhotoURL:  in.PhotoURL,
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateInput carries owner-editable fields; nil pointers leave the
// current value in place.
type UpdateInput struct {
	Title    *string
	Notes    *string
	PhotoURL *string
	Status   *string
}

// Update applies owner edits to a project. Only the owner may update.
func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != userID {
		return nil, fmt.Errorf("%w: only the owner may edit a project", httpx.ErrForbidden)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", httpx.ErrValidation)
		}
		project.Title = title
	}
	if in.Notes != nil {
		project.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.PhotoURL != nil {
		project.PhotoURL = *in.PhotoURL
	}
	if in.Status != nil {
		if *in.Status != StatusInProgress && *in.Status != StatusFinished {
			return nil, fmt.Errorf("%w: status must be in_progress or finished", httpx.ErrValidation)
		}
		project.Status = *in.Status
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Like records a like for the user.
func (s *Service) Like(ctx context.Context, projectID, userID string) error {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return err
	}
	return s.repo.AddLike(ctx, projectID, userID)
}

// Unlike removes a like for the user.
func (s *Service) Unlike(ctx context.Context, projectID, userID string) error {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return err
	}
	return s.repo.RemoveLike(ctx, projectID, userID)
}

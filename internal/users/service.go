package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
)

// Service handles member profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Profile returns the public profile for a member id.
func (s *Service) Profile(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// UpdateNames changes the member's first and display names.
func (s *Service) UpdateNames(ctx context.Context, id, firstName, displayName string) error {
	firstName = strings.TrimSpace(firstName)
	displayName = strings.TrimSpace(displayName)
	if firstName == "" {
		return fmt.Errorf("%w: first name is required", httpx.ErrValidation)
	}
	if displayName == "" {
		displayName = firstName
	}
	return s.repo.UpdateNames(ctx, id, firstName, displayName)
}

// UpdatePreferences stores the notification opt-ins.
func (s *Service) UpdatePreferences(ctx context.Context, id string, prefs Preferences) error {
	return s.repo.UpdatePreferences(ctx, id, prefs)
}

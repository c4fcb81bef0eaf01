package blocks

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Service handles block library logic.
type Service struct {
	repo  RepositoryPort
	now   func() time.Time
	title cases.Caser
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		title: cases.Title(language.English),
	}
}

// List returns the full library.
func (s *Service) List(ctx context.Context) ([]Block, error) {
	blocks, err := s.repo.ListBlocks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		if blocks[i].Name == "" {
			blocks[i].Name = s.displayName(blocks[i].Slug)
		}
	}
	return blocks, nil
}

// Get fetches one block by slug.
func (s *Service) Get(ctx context.Context, slug string) (*Block, error) {
	block, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if block.Name == "" {
		block.Name = s.displayName(block.Slug)
	}
	return block, nil
}

// OfTheMonth picks the featured block for the current calendar month.
// The choice is a deterministic rotation so every request in a month
// agrees without any stored state.
func (s *Service) OfTheMonth(ctx context.Context) (*Block, error) {
	blocks, err := s.repo.ListBlocks(ctx)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	now := s.now()
	idx := (now.Year()*12 + int(now.Month()) - 1) % len(blocks)
	block := blocks[idx]
	if block.Name == "" {
		block.Name = s.displayName(block.Slug)
	}
	return &block, nil
}

func (s *Service) displayName(slug string) string {
	return s.title.String(strings.ReplaceAll(slug, "-", " "))
}

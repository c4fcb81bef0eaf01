package blocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltfolk/quiltfolk/internal/shared"
)

type mockRepo struct {
	blocks []Block
}

func (m *mockRepo) ListBlocks(_ context.Context) ([]Block, error) {
	out := make([]Block, len(m.blocks))
	copy(out, m.blocks)
	return out, nil
}

func (m *mockRepo) GetBySlug(_ context.Context, slug string) (*Block, error) {
	for _, b := range m.blocks {
		if b.Slug == slug {
			copied := b
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func fixedService(repo RepositoryPort, at time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return at }
	return svc
}

func TestListFillsDisplayNames(t *testing.T) {
	repo := &mockRepo{blocks: []Block{
		{ID: "b1", Slug: "log-cabin"},
		{ID: "b2", Slug: "churn-dash", Name: "The Churn Dash"},
	}}
	svc := NewService(repo)

	blocks, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "Log Cabin", blocks[0].Name)
	assert.Equal(t, "The Churn Dash", blocks[1].Name)
}

func TestOfTheMonthIsDeterministic(t *testing.T) {
	repo := &mockRepo{blocks: []Block{
		{ID: "b1", Slug: "log-cabin"},
		{ID: "b2", Slug: "churn-dash"},
		{ID: "b3", Slug: "flying-geese"},
	}}

	march := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	first, err := fixedService(repo, march).OfTheMonth(context.Background())
	require.NoError(t, err)

	// Same month, different day: same block.
	later := march.AddDate(0, 0, 15)
	second, err := fixedService(repo, later).OfTheMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Next month rotates to the adjacent block.
	april := march.AddDate(0, 1, 0)
	next, err := fixedService(repo, april).OfTheMonth(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
}

func TestOfTheMonthEmptyLibrary(t *testing.T) {
	svc := NewService(&mockRepo{})
	block, err := svc.OfTheMonth(context.Background())
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestGetUnknownBlock(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

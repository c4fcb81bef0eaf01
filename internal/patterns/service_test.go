package patterns

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

type mockRepo struct {
	bySlug       map[string]*Pattern
	popularCalls int
	favorites    map[string]map[string]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		bySlug:    make(map[string]*Pattern),
		favorites: make(map[string]map[string]bool),
	}
}

func (m *mockRepo) List(_ context.Context, _ ListFilter) ([]Pattern, int, error) {
	var out []Pattern
	for _, p := range m.bySlug {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListPopular(_ context.Context, limit int) ([]Pattern, error) {
	m.popularCalls++
	var out []Pattern
	for _, p := range m.bySlug {
		if len(out) == limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepo) GetBySlug(_ context.Context, slug string) (*Pattern, error) {
	p, ok := m.bySlug[slug]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepo) Create(_ context.Context, p *Pattern) error {
	if _, ok := m.bySlug[p.Slug]; ok {
		return httpx.ErrDuplicate
	}
	copied := *p
	m.bySlug[p.Slug] = &copied
	return nil
}

func (m *mockRepo) AddFavorite(_ context.Context, patternID, userID string) error {
	if m.favorites[patternID] == nil {
		m.favorites[patternID] = make(map[string]bool)
	}
	m.favorites[patternID][userID] = true
	return nil
}

func (m *mockRepo) RemoveFavorite(_ context.Context, patternID, userID string) error {
	delete(m.favorites[patternID], userID)
	return nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCreate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	pattern, err := svc.Create(context.Background(), "designer-1", CreateInput{
		Title:      "Flying Geese, Revisited!",
		Category:   "traditional",
		Difficulty: DifficultyIntermediate,
		PieceCount: 96,
		Premium:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "flying-geese-revisited", pattern.Slug)
	assert.Equal(t, "designer-1", pattern.DesignerID)
	require.NotNil(t, pattern.PublishedAt)
	assert.Contains(t, repo.bySlug, "flying-geese-revisited")
}

func TestCreateValidation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing title", CreateInput{Category: "modern", Difficulty: DifficultyBeginner}},
		{"bad difficulty", CreateInput{Title: "Stars", Category: "modern", Difficulty: "impossible"}},
		{"missing category", CreateInput{Title: "Stars", Difficulty: DifficultyBeginner}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "designer-1", tc.input)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
	assert.Empty(t, repo.bySlug)
}

func TestCreateDuplicateSlug(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	in := CreateInput{Title: "Log Cabin", Category: "traditional", Difficulty: DifficultyBeginner}
	_, err := svc.Create(context.Background(), "designer-1", in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "designer-2", in)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestPopularUsesCache(t *testing.T) {
	repo := newMockRepo()
	repo.bySlug["log-cabin"] = &Pattern{ID: "p1", Slug: "log-cabin", Title: "Log Cabin"}
	svc := NewService(repo, newTestCache(t))

	first, err := svc.Popular(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Second read is served from Redis without touching the repository.
	second, err := svc.Popular(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.popularCalls)
}

func TestFavoriteInvalidatesPopularCache(t *testing.T) {
	repo := newMockRepo()
	repo.bySlug["log-cabin"] = &Pattern{ID: "p1", Slug: "log-cabin", Title: "Log Cabin"}
	svc := NewService(repo, newTestCache(t))

	_, err := svc.Popular(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Favorite(context.Background(), "log-cabin", "user-1"))
	assert.True(t, repo.favorites["p1"]["user-1"])

	_, err = svc.Popular(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.popularCalls)
}

func TestFavoriteUnknownPattern(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	err := svc.Favorite(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Flying Geese":            "flying-geese",
		"  Stars & Stripes  ":     "stars-stripes",
		"Drunkard's Path #2":      "drunkard-s-path-2",
		"---":                     "",
		"Ocean Waves (King Size)": "ocean-waves-king-size",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

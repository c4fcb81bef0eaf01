package patterns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiltfolk/quiltfolk/internal/platform/db"
	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// RepositoryPort defines data access methods for patterns.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Pattern, int, error)
	ListPopular(ctx context.Context, limit int) ([]Pattern, error)
	GetBySlug(ctx context.Context, slug string) (*Pattern, error)
	Create(ctx context.Context, p *Pattern) error
	AddFavorite(ctx context.Context, patternID, userID string) error
	RemoveFavorite(ctx context.Context, patternID, userID string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const patternColumns = `p.id, p.designer_id, u.display_name, p.title, p.slug, p.description,
	p.category, p.difficulty, p.piece_count, p.premium, p.image_url, p.pdf_url,
	p.favorites_count, p.published_at, p.created_at`

func scanPattern(row pgx.Row) (*Pattern, error) {
	var p Pattern
	err := row.Scan(
		&p.ID, &p.DesignerID, &p.DesignerName, &p.Title, &p.Slug, &p.Description,
		&p.Category, &p.Difficulty, &p.PieceCount, &p.Premium, &p.ImageURL, &p.PDFURL,
		&p.FavoritesCount, &p.PublishedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns a filtered page of published patterns and the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Pattern, int, error) {
	where := `p.published_at IS NOT NULL`
	args := []any{}
	idx := 1
	if filter.Category != "" {
		where += fmt.Sprintf(" AND p.category = $%d", idx)
		args = append(args, filter.Category)
		idx++
	}
	if filter.Difficulty != "" {
		where += fmt.Sprintf(" AND p.difficulty = $%d", idx)
		args = append(args, filter.Difficulty)
		idx++
	}
	if filter.Query != "" {
		where += fmt.Sprintf(" AND (p.title ILIKE $%d OR p.description ILIKE $%d)", idx, idx)
		args = append(args, "%"+filter.Query+"%")
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM patterns p WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := fmt.Sprintf(`
		SELECT `+patternColumns+`
		FROM patterns p JOIN users u ON u.id = p.designer_id
		WHERE `+where+`
		ORDER BY p.published_at DESC
		LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, 0, err
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return patterns, total, nil
}

// ListPopular returns the most favorited published patterns.
func (r *Repository) ListPopular(ctx context.Context, limit int) ([]Pattern, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patternColumns+`
		FROM patterns p JOIN users u ON u.id = p.designer_id
		WHERE p.published_at IS NOT NULL
		ORDER BY p.favorites_count DESC, p.published_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	return patterns, rows.Err()
}

// GetBySlug fetches one pattern by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Pattern, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patternColumns+`
		FROM patterns p JOIN users u ON u.id = p.designer_id
		WHERE p.slug = $1`, slug)
	p, err := scanPattern(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new pattern. Slug collisions surface as conflicts.
func (r *Repository) Create(ctx context.Context, p *Pattern) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patterns (
			id, designer_id, title, slug, description, category, difficulty,
			piece_count, premium, image_url, pdf_url, favorites_count,
			published_at, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,0,$12,$13)`,
		p.ID, p.DesignerID, p.Title, p.Slug, p.Description, p.Category, p.Difficulty,
		p.PieceCount, p.Premium, p.ImageURL, p.PDFURL, p.PublishedAt, p.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: a pattern with this title already exists", httpx.ErrDuplicate)
		}
		return err
	}
	return nil
}

// AddFavorite records a favorite and bumps the counter in one round trip.
func (r *Repository) AddFavorite(ctx context.Context, patternID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO pattern_favorites (pattern_id, user_id, created_at)
		VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		patternID, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE patterns SET favorites_count = favorites_count + 1 WHERE id = $1`, patternID)
	return err
}

// RemoveFavorite deletes a favorite and lowers the counter.
func (r *Repository) RemoveFavorite(ctx context.Context, patternID, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM pattern_favorites WHERE pattern_id = $1 AND user_id = $2`,
		patternID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE patterns SET favorites_count = greatest(favorites_count - 1, 0) WHERE id = $1`, patternID)
	return err
}

var _ RepositoryPort = (*Repository)(nil)

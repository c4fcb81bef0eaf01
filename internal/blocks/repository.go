package blocks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// RepositoryPort defines data access methods for the block library.
type RepositoryPort interface {
	ListBlocks(ctx context.Context) ([]Block, error)
	GetBySlug(ctx context.Context, slug string) (*Block, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBlocks returns the whole library ordered by name.
func (r *Repository) ListBlocks(ctx context.Context) ([]Block, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, slug, name, grid_size, description, diagram_url FROM blocks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var blocks []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.Slug, &b.Name, &b.GridSize, &b.Description, &b.DiagramURL); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// GetBySlug fetches one block.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Block, error) {
	var b Block
	err := r.pool.QueryRow(ctx,
		`SELECT id, slug, name, grid_size, description, diagram_url FROM blocks WHERE slug = $1`,
		slug,
	).Scan(&b.ID, &b.Slug, &b.Name, &b.GridSize, &b.Description, &b.DiagramURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

var _ RepositoryPort = (*Repository)(nil)

package projects

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	ListGallery(ctx context.Context, page, perPage int) ([]Project, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Project, error)
	GetByID(ctx context.Context, id string) (*Project, error)
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, p *Project) error
	AddLike(ctx context.Context, projectID, userID string) error
	RemoveLike(ctx context.Context, projectID, userID string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `p.id, p.owner_id, u.display_name, p.pattern_id, p.title, p.notes,
	p.photo_url, p.status, p.likes_count, p.created_at, p.updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.OwnerName, &p.PatternID, &p.Title, &p.Notes,
		&p.PhotoURL, &p.Status, &p.LikesCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListGallery returns a page of the public gallery, newest first.
func (r *Repository) ListGallery(ctx context.Context, page, perPage int) ([]Project, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects p JOIN users u ON u.id = p.owner_id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	return projects, total, rows.Err()
}

// ListByOwner returns all projects of one member.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects p JOIN users u ON u.id = p.owner_id
		WHERE p.owner_id = $1
		ORDER BY p.created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// GetByID fetches one project.
func (r *Repository) GetByID(ctx context.Context, id string) (*Project, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects p JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new project.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (id, owner_id, pattern_id, title, notes, photo_url, status,
			likes_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8,$8)`,
		p.ID, p.OwnerID, p.PatternID, p.Title, p.Notes, p.PhotoURL, p.Status, p.CreatedAt)
	return err
}

// Update rewrites the mutable fields of a project.
func (r *Repository) Update(ctx context.Context, p *Project) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET title = $2, notes = $3, photo_url = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Title, p.Notes, p.PhotoURL, p.Status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddLike records a like and bumps the counter.
func (r *Repository) AddLike(ctx context.Context, projectID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO project_likes (project_id, user_id, created_at)
		VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		projectID, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE projects SET likes_count = likes_count + 1 WHERE id = $1`, projectID)
	return err
}

// RemoveLike deletes a like and lowers the counter.
func (r *Repository) RemoveLike(ctx context.Context, projectID, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM project_likes WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE projects SET likes_count = greatest(likes_count - 1, 0) WHERE id = $1`, projectID)
	return err
}

var _ RepositoryPort = (*Repository)(nil)

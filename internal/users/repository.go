package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// RepositoryPort defines data access methods for member profiles.
type RepositoryPort interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	UpdateNames(ctx context.Context, id, firstName, displayName string) error
	UpdatePreferences(ctx context.Context, id string, prefs Preferences) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile returns the public profile with project and pattern counts.
func (r *Repository) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var profile Profile
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.display_name, u.status, u.created_at,
			(SELECT count(*) FROM projects p WHERE p.owner_id = u.id),
			(SELECT count(*) FROM patterns pa WHERE pa.designer_id = u.id)
		FROM users u WHERE u.id = $1`,
		id,
	).Scan(&profile.ID, &profile.DisplayName, &profile.Status, &profile.MemberSince,
		&profile.ProjectCount, &profile.PatternCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// UpdateNames updates the member's own name fields.
func (r *Repository) UpdateNames(ctx context.Context, id, firstName, displayName string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET first_name = $2, display_name = $3, updated_at = $4 WHERE id = $1`,
		id, firstName, displayName, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePreferences stores the notification opt-ins.
func (r *Repository) UpdatePreferences(ctx context.Context, id string, prefs Preferences) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET newsletter_opt_in = $2, digest_opt_in = $3, updated_at = $4 WHERE id = $1`,
		id, prefs.NewsletterOptIn, prefs.DigestOptIn, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)

package auth

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

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, display_name, status,
	subscription_status, subscription_plan, trial_ends_at,
	stripe_customer_id, stripe_subscription_id,
	newsletter_opt_in, digest_opt_in, last_login_at, created_at, updated_at`

// CreateUser inserts a new account. A duplicate email surfaces as a
// conflict via the users_email_key unique constraint; the insert is
// never turned into an overwrite.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, display_name, status,
			subscription_status, subscription_plan, trial_ends_at,
			stripe_customer_id, stripe_subscription_id,
			newsletter_opt_in, digest_opt_in, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.DisplayName, user.Status,
		user.SubscriptionStatus, user.SubscriptionPlan, user.TrialEndsAt,
		user.StripeCustomerID, user.StripeSubscriptionID,
		user.NewsletterOptIn, user.DigestOptIn, user.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
		}
		return err
	}
	return nil
}

// FindByEmail fetches a user by its lower-cased email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.DisplayName, &user.Status,
		&user.SubscriptionStatus, &user.SubscriptionPlan, &user.TrialEndsAt,
		&user.StripeCustomerID, &user.StripeSubscriptionID,
		&user.NewsletterOptIn, &user.DigestOptIn, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateSession persists a login session row for auditing. The Redis
// entry is the source of truth for validity; these rows feed the
// sessions:reap housekeeping job.
func (r *PGRepository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''))
		ON CONFLICT (id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		id, userID, now, expiresAt.UTC(), ip, ua,
	)
	return err
}

// DeleteSession removes a session audit row.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// TouchLastLogin records the most recent sign-in time. Best-effort:
// callers treat failures as non-fatal.
func (r *PGRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at.UTC())
	return err
}

var _ Repository = (*PGRepository)(nil)

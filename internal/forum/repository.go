package forum

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// RepositoryPort defines data access methods for the forum.
type RepositoryPort interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ListThreads(ctx context.Context, categoryID string, page, perPage int) ([]Thread, int, error)
	GetThread(ctx context.Context, id string) (*Thread, error)
	ListPosts(ctx context.Context, threadID string) ([]Post, error)
	CreateThread(ctx context.Context, thread *Thread, opening *Post) error
	CreatePost(ctx context.Context, post *Post) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCategories returns all categories with thread counts.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.slug, c.name, c.description,
			(SELECT count(*) FROM forum_threads t WHERE t.category_id = c.id)
		FROM forum_categories c ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.ThreadCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryBySlug fetches one category.
func (r *Repository) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		SELECT c.id, c.slug, c.name, c.description,
			(SELECT count(*) FROM forum_threads t WHERE t.category_id = c.id)
		FROM forum_categories c WHERE c.slug = $1`, slug,
	).Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.ThreadCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

const threadColumns = `t.id, t.category_id, t.author_id, u.display_name, t.title,
	t.reply_count, t.last_post_at, t.created_at`

// ListThreads returns a page of threads, most recently active first.
func (r *Repository) ListThreads(ctx context.Context, categoryID string, page, perPage int) ([]Thread, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM forum_threads WHERE category_id = $1`, categoryID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `
		SELECT `+threadColumns+`
		FROM forum_threads t JOIN users u ON u.id = t.author_id
		WHERE t.category_id = $1
		ORDER BY t.last_post_at DESC
		LIMIT $2 OFFSET $3`, categoryID, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.AuthorID, &t.AuthorName, &t.Title,
			&t.ReplyCount, &t.LastPostAt, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		threads = append(threads, t)
	}
	return threads, total, rows.Err()
}

// GetThread fetches one thread.
func (r *Repository) GetThread(ctx context.Context, id string) (*Thread, error) {
	var t Thread
	err := r.pool.QueryRow(ctx, `
		SELECT `+threadColumns+`
		FROM forum_threads t JOIN users u ON u.id = t.author_id
		WHERE t.id = $1`, id,
	).Scan(&t.ID, &t.CategoryID, &t.AuthorID, &t.AuthorName, &t.Title,
		&t.ReplyCount, &t.LastPostAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListPosts returns a thread's posts in chronological order.
func (r *Repository) ListPosts(ctx context.Context, threadID string) ([]Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.thread_id, p.author_id, u.display_name, p.body, p.created_at
		FROM forum_posts p JOIN users u ON u.id = p.author_id
		WHERE p.thread_id = $1
		ORDER BY p.created_at`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.AuthorName, &p.Body, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreateThread inserts the thread and its opening post atomically.
func (r *Repository) CreateThread(ctx context.Context, thread *Thread, opening *Post) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO forum_threads (id, category_id, author_id, title, reply_count, last_post_at, created_at)
		VALUES ($1,$2,$3,$4,0,$5,$5)`,
		thread.ID, thread.CategoryID, thread.AuthorID, thread.Title, thread.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO forum_posts (id, thread_id, author_id, body, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		opening.ID, opening.ThreadID, opening.AuthorID, opening.Body, opening.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreatePost inserts a reply and bumps the thread counters in one
// statement each, inside a transaction.
func (r *Repository) CreatePost(ctx context.Context, post *Post) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO forum_posts (id, thread_id, author_id, body, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		post.ID, post.ThreadID, post.AuthorID, post.Body, post.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE forum_threads SET reply_count = reply_count + 1, last_post_at = $2
		WHERE id = $1`,
		post.ThreadID, post.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ RepositoryPort = (*Repository)(nil)

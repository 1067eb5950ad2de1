package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/afflytics/afflytics/internal/model"
)

// PostRepository is the primary (remote) store for blog posts.
type PostRepository struct {
	repo *Repository
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{repo: repo}
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (id, title, body, tags, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.repo.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Body,
		pq.Array(post.Tags),
		post.Published,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return unavailable("insert post", err)
	}
	return nil
}

// Update replaces a post's mutable fields by id.
func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET title = $2, body = $3, tags = $4, published = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.repo.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Body,
		pq.Array(post.Tags),
		post.Published,
		time.Now().UTC(),
	)
	if err != nil {
		return unavailable("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post by id.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.repo.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a post by id.
func (r *PostRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	query := `
		SELECT id, title, body, tags, published, created_at, updated_at
		FROM posts WHERE id = $1
	`

	post, err := scanPost(r.repo.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get post", err)
	}
	return post, nil
}

// List returns all posts, newest first.
func (r *PostRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `
		SELECT id, title, body, tags, published, created_at, updated_at
		FROM posts ORDER BY created_at DESC
	`

	rows, err := r.repo.pool.Query(ctx, query)
	if err != nil {
		return nil, unavailable("list posts", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, unavailable("scan post", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate posts", err)
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	var post model.Post
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		pq.Array(&post.Tags),
		&post.Published,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

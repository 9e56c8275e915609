package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// PostDB implements repository.PostRepository over the shared connection
// pool. Obtain one with DB.Posts().
type PostDB struct {
	conn *sql.DB
}

// Compile-time check that *PostDB implements repository.PostRepository.
var _ repository.PostRepository = (*PostDB)(nil)

// Create inserts a new post and assigns the generated ID and timestamp back
// onto the struct. AuthorID must already be set by the service — the FK
// rejects an author that doesn't exist.
func (db *PostDB) Create(ctx context.Context, post *model.Post) error {
	post.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, content, slug, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		post.Title,
		post.Content,
		post.Slug,
		post.AuthorID,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post %q: %w", post.Title, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// GetByID retrieves a single post by its ID.
// Returns apperror.ErrNotFound if the post doesn't exist.
func (db *PostDB) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, slug, author_id, created_at
		 FROM posts WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.Slug,
		&p.AuthorID,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}

	return &p, nil
}

// List retrieves posts newest-first, optionally filtered.
//
// SEARCH WITH instr(), NOT LIKE:
// SQLite's LIKE is case-insensitive for ASCII, but the search contract here
// is a case-sensitive substring match over title OR content. instr() does a
// byte-wise scan, which gives exactly that — "Fish" does not match "fish".
func (db *PostDB) List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, title, content, slug, author_id, created_at FROM posts`
	var (
		where []string
		args  []any
	)
	if filter.AuthorID != 0 {
		where = append(where, `author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if filter.Search != "" {
		// OR across the two fields is the contract: a match in either
		// title or content includes the post.
		where = append(where, `(instr(title, ?) > 0 OR instr(content, ?) > 0)`)
		args = append(args, filter.Search, filter.Search)
	}
	for i, clause := range where {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Content, &p.Slug, &p.AuthorID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// Update modifies a post's mutable fields: title, slug, content.
//
// author_id and created_at are absent from the SET list on purpose —
// authorship is immutable after creation.
func (db *PostDB) Update(ctx context.Context, post *model.Post) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, slug = ? WHERE id = ?`,
		post.Title,
		post.Content,
		post.Slug,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// Delete removes a post by its ID.
// Same pattern as Update — RowsAffected detects "not found".
func (db *PostDB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}

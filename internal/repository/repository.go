// Package repository defines the persistence interfaces the services program
// against. The sqlite subpackage provides the real implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/microblog/internal/model"
)

// ListOptions carries pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter restricts a post listing. Zero value means "all posts,
// newest first".
//
// AuthorID filters to a single author's posts ("my posts"). Search matches
// posts whose title OR content contains the string as a case-sensitive
// substring — the OR is deliberate and part of the search contract.
type PostFilter struct {
	AuthorID int64  // 0 = any author
	Search   string // "" = no search predicate
}

// UserRepository is the persistence port for user records.
//
// Create and Update return apperror.ErrDuplicate when the username or email
// unique constraint is violated — the database constraint is the
// authoritative guard against races, any service-level pre-check is just a
// friendlier error message. Lookups return apperror.ErrNotFound when the
// key doesn't resolve.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// SetAdmin flips only the admin flag, leaving profile fields untouched.
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	// Delete removes the user and, via the schema's ON DELETE CASCADE,
	// all their posts in the same transaction.
	Delete(ctx context.Context, id int64) error
	// List returns all users ordered by creation time descending (the
	// admin roster view).
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
}

// PostRepository is the persistence port for posts.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	List(ctx context.Context, filter PostFilter, opts ListOptions) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id int64) error
}

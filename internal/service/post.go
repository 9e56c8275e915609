package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

const (
	MaxTitleLength = 255
	MaxSlugLength  = 255
)

// PostService handles business logic for blog posts.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		logger: logger,
	}
}

// PostInput carries the author-settable fields of a new post. The author
// itself is never an input — it is always the acting user.
type PostInput struct {
	Title   string
	Content string
	Slug    string
}

// Create publishes a new post authored by actor.
//
// The caller (handler) has already established that actor is authenticated;
// the nil check here is belt-and-braces for non-HTTP callers. The author
// reference is taken from the actor and is immutable from then on.
func (s *PostService) Create(ctx context.Context, actor *model.User, input PostInput) (*model.Post, error) {
	if actor == nil {
		return nil, apperror.Forbidden("you must be logged in to publish a post")
	}

	title := strings.TrimSpace(input.Title)
	slug := strings.TrimSpace(input.Slug)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if slug == "" {
		return nil, apperror.ValidationFailed("slug", "slug is required")
	}
	if len(slug) > MaxSlugLength {
		return nil, apperror.ValidationFailed("slug",
			fmt.Sprintf("slug must be %d characters or less", MaxSlugLength))
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}

	post := &model.Post{
		Title:    title,
		Content:  input.Content, // opaque — may be rich text, stored as-is
		Slug:     slug,
		AuthorID: actor.ID,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post published",
		slog.Int64("id", post.ID),
		slog.Int64("authorID", actor.ID),
	)

	return post, nil
}

// GetByID retrieves a post by its ID.
// Returns apperror.ErrNotFound if the post doesn't exist.
func (s *PostService) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// PostUpdate enumerates the mutable fields of a post. Pointer fields
// distinguish "leave unchanged" from "set". Authorship is not here —
// editing never changes who wrote a post.
type PostUpdate struct {
	Title   *string
	Content *string
	Slug    *string
}

// Update edits an existing post.
//
// ORDER OF CHECKS — fetch, then authorize, then mutate:
// "Does this post exist" is answered before "may you touch it", so editing
// a missing post is a 404 regardless of who asks, and a failed
// authorization leaves the post exactly as it was.
func (s *PostService) Update(ctx context.Context, actor *model.User, id int64, input PostUpdate) (*model.Post, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanModify(actor, post.AuthorID) {
		return nil, apperror.Forbidden("you are not authorized to edit this post")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title must not be empty")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		post.Title = title
	}
	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if slug == "" {
			return nil, apperror.ValidationFailed("slug", "slug must not be empty")
		}
		post.Slug = slug
	}
	if input.Content != nil {
		post.Content = *input.Content
	}

	if err := s.repo.Update(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated",
		slog.Int64("id", post.ID),
		slog.Int64("actorID", actor.ID),
	)

	return post, nil
}

// Delete removes a post. Same gating as Update: fetch-or-404, then
// author-or-admin.
func (s *PostService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if id <= 0 {
		return apperror.ValidationFailed("id", "post ID is required")
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !auth.CanModify(actor, post.AuthorID) {
		return apperror.Forbidden("you can't delete this post")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.Int64("id", id),
		slog.Int64("actorID", actor.ID),
	)
	return nil
}

// List retrieves posts, newest first.
//
// filter.AuthorID restricts to one author ("my posts"); filter.Search
// matches the string case-sensitively as a substring of title OR content.
// Both may be combined.
func (s *PostService) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]model.Post, error) {
	posts, err := s.repo.List(ctx, filter, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

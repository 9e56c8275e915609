package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/repository"
	"github.com/sakif/microblog/internal/service"
)

// PostHandler manages CRUD and search for blog posts.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Slug    string `json:"slug"`
}

// HandleCreate publishes a new post authored by the logged-in user.
//
// HTTP: POST /api/posts
// Auth: required. There is no author field in the request — the author is
// always the session's user.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	post, err := h.posts.Create(r.Context(), actor, service.PostInput{
		Title:   req.Title,
		Content: req.Content,
		Slug:    req.Slug,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleGet returns a single post.
//
// HTTP: GET /api/posts/{id} — absence of the id yields 404.
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "post ID must be a positive integer",
		})
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleList returns posts newest-first.
//
// HTTP: GET /api/posts?search=&mine=1&limit=&offset=
//
//   - search= filters to posts whose title or content contains the string
//     (case-sensitive substring, OR across the two fields)
//   - mine=1 restricts to the logged-in user's posts (ignored for
//     anonymous callers — OptionalAuth leaves them without a user)
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	filter := repository.PostFilter{Search: q.Get("search")}
	if q.Get("mine") == "1" {
		if actor, ok := auth.UserFromContext(r.Context()); ok {
			filter.AuthorID = actor.ID
		}
	}

	posts, err := h.posts.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Slug    *string `json:"slug"`
}

// HandleUpdate edits a post (author or admin).
//
// HTTP: PUT /api/posts/{id}
// Auth: required; the service enforces author-or-admin after fetch-or-404.
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "post ID must be a positive integer",
		})
		return
	}

	actor, _ := auth.UserFromContext(r.Context())

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	post, err := h.posts.Update(r.Context(), actor, id, service.PostUpdate{
		Title:   req.Title,
		Content: req.Content,
		Slug:    req.Slug,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post (author or admin).
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "post ID must be a positive integer",
		})
		return
	}

	actor, _ := auth.UserFromContext(r.Context())

	if err := h.posts.Delete(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

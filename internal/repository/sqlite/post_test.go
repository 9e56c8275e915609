package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// newTestPostDB returns a *PostDB plus a *UserDB over the same in-memory
// database — posts need an author row or the foreign key rejects them.
func newTestPostDB(t *testing.T) (*UserDB, *PostDB) {
	t.Helper()
	db := newTestDB(t)
	return db.Users(), db.Posts()
}

// createTestPost creates a post for the given author and fails the test on error.
func createTestPost(t *testing.T, p *PostDB, authorID int64, title string) *model.Post {
	t.Helper()
	post := &model.Post{
		Title:    title,
		Content:  "Content of " + title,
		Slug:     title,
		AuthorID: authorID,
	}
	if err := p.Create(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestPostCreate(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")

	post := &model.Post{
		Title:    "First Post",
		Content:  "Hello, world.",
		Slug:     "first-post",
		AuthorID: author.ID,
	}

	err := p.Create(context.Background(), post)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if post.ID == 0 {
		t.Error("Create() did not set post.ID")
	}
	if post.CreatedAt.IsZero() {
		t.Error("Create() did not set post.CreatedAt")
	}
}

func TestPostCreate_UnknownAuthorRejected(t *testing.T) {
	_, p := newTestPostDB(t)

	// The foreign key is ON — a post can't point at a user that doesn't
	// exist.
	post := &model.Post{
		Title:    "Orphan",
		Content:  "x",
		Slug:     "orphan",
		AuthorID: 9999,
	}
	err := p.Create(context.Background(), post)
	if err == nil {
		t.Fatal("Create() should reject a post whose author doesn't exist")
	}
	t.Logf("FK violation error (expected): %v", err)
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestPostGet_RoundTrip(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")
	created := createTestPost(t, p, author.ID, "Round Trip")

	got, err := p.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Round Trip" || got.AuthorID != author.ID {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestPostGet_NotFound(t *testing.T) {
	_, p := newTestPostDB(t)

	_, err := p.GetByID(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestPostList_NewestFirst(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")
	ctx := context.Background()

	createTestPost(t, p, author.ID, "Oldest")
	createTestPost(t, p, author.ID, "Middle")
	createTestPost(t, p, author.ID, "Newest")

	posts, err := p.List(ctx, repository.PostFilter{}, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("List() returned %d posts, want 3", len(posts))
	}
	// Equal timestamps fall back to id DESC, so insertion order comes
	// back reversed either way.
	want := []string{"Newest", "Middle", "Oldest"}
	for i, title := range want {
		if posts[i].Title != title {
			t.Errorf("posts[%d].Title = %q, want %q", i, posts[i].Title, title)
		}
	}
}

func TestPostList_FilterByAuthor(t *testing.T) {
	u, p := newTestPostDB(t)
	alice := createTestUser(t, u, "alice", "alice@example.com")
	bob := createTestUser(t, u, "bob", "bob@example.com")
	ctx := context.Background()

	createTestPost(t, p, alice.ID, "Alice One")
	createTestPost(t, p, bob.ID, "Bob One")
	createTestPost(t, p, alice.ID, "Alice Two")

	posts, err := p.List(ctx, repository.PostFilter{AuthorID: alice.ID}, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("List(author=alice) returned %d posts, want 2", len(posts))
	}
	for _, post := range posts {
		if post.AuthorID != alice.ID {
			t.Errorf("post %d has author %d, want %d", post.ID, post.AuthorID, alice.ID)
		}
	}
}

func TestPostList_SearchIsCaseSensitiveOr(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")
	ctx := context.Background()

	titleHit := &model.Post{Title: "Gone fishing", Content: "A quiet day.", Slug: "a", AuthorID: author.ID}
	contentHit := &model.Post{Title: "Dinner plans", Content: "Grilled fish again.", Slug: "b", AuthorID: author.ID}
	wrongCase := &model.Post{Title: "Fishing gear", Content: "Capital F only.", Slug: "c", AuthorID: author.ID}
	noHit := &model.Post{Title: "Unrelated", Content: "Nothing here.", Slug: "d", AuthorID: author.ID}
	for _, post := range []*model.Post{titleHit, contentHit, wrongCase, noHit} {
		if err := p.Create(ctx, post); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	posts, err := p.List(ctx, repository.PostFilter{Search: "fish"}, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	// instr() is a byte-wise scan: "fish" hits one title and one content,
	// and does NOT match "Fishing" — unlike LIKE, which folds ASCII case.
	if len(posts) != 2 {
		t.Fatalf("List(search=fish) returned %d posts, want 2", len(posts))
	}
	found := map[int64]bool{}
	for _, post := range posts {
		found[post.ID] = true
	}
	if !found[titleHit.ID] || !found[contentHit.ID] {
		t.Errorf("search missed a match: got %v, want posts %d and %d", found, titleHit.ID, contentHit.ID)
	}
	if found[wrongCase.ID] {
		t.Error("search matched \"Fishing\" for query \"fish\" — must be case-sensitive")
	}
}

func TestPostList_SearchAndAuthorCombine(t *testing.T) {
	u, p := newTestPostDB(t)
	alice := createTestUser(t, u, "alice", "alice@example.com")
	bob := createTestUser(t, u, "bob", "bob@example.com")
	ctx := context.Background()

	mine := &model.Post{Title: "My trip", Content: "Lots of fish.", Slug: "a", AuthorID: alice.ID}
	theirs := &model.Post{Title: "His trip", Content: "Also fish.", Slug: "b", AuthorID: bob.ID}
	for _, post := range []*model.Post{mine, theirs} {
		if err := p.Create(ctx, post); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	posts, err := p.List(ctx,
		repository.PostFilter{AuthorID: alice.ID, Search: "fish"},
		repository.ListOptions{},
	)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 1 || posts[0].ID != mine.ID {
		t.Errorf("List(author+search) = %+v, want exactly alice's post", posts)
	}
}

func TestPostList_Pagination(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		createTestPost(t, p, author.ID, title)
	}

	page1, err := p.List(ctx, repository.PostFilter{}, repository.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List(page1) error = %v", err)
	}
	page2, err := p.List(ctx, repository.PostFilter{}, repository.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List(page2) error = %v", err)
	}
	if len(page1) != 2 || len(page2) != 2 {
		t.Fatalf("page sizes = %d, %d, want 2, 2", len(page1), len(page2))
	}
	if page1[0].ID == page2[0].ID {
		t.Error("pages overlap — offset is not applied")
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestPostUpdate(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")
	post := createTestPost(t, p, author.ID, "Draft")
	ctx := context.Background()

	post.Title = "Final"
	post.Content = "Polished content."
	post.Slug = "final"
	if err := p.Update(ctx, post); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := p.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Final" || got.Content != "Polished content." || got.Slug != "final" {
		t.Errorf("Update() not persisted: %+v", got)
	}
}

func TestPostUpdate_AuthorshipImmutable(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")
	other := createTestUser(t, u, "other", "other@example.com")
	post := createTestPost(t, p, author.ID, "Mine")
	ctx := context.Background()

	// author_id is not in the UPDATE's SET list, so even a struct with a
	// different author writes nothing there.
	post.AuthorID = other.ID
	if err := p.Update(ctx, post); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := p.GetByID(ctx, post.ID)
	if got.AuthorID != author.ID {
		t.Errorf("AuthorID = %d after update, want original author %d", got.AuthorID, author.ID)
	}
}

func TestPostUpdate_NotFound(t *testing.T) {
	_, p := newTestPostDB(t)

	ghost := &model.Post{ID: 9999, Title: "G", Content: "g", Slug: "g"}
	err := p.Update(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestPostDelete(t *testing.T) {
	u, p := newTestPostDB(t)
	author := createTestUser(t, u, "writer", "writer@example.com")
	post := createTestPost(t, p, author.ID, "Doomed")
	ctx := context.Background()

	if err := p.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := p.GetByID(ctx, post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete: error = %v, want ErrNotFound", err)
	}

	// The author survives their post.
	if _, err := u.GetByID(ctx, author.ID); err != nil {
		t.Errorf("author lookup after post delete: error = %v", err)
	}
}

func TestPostDelete_NotFound(t *testing.T) {
	_, p := newTestPostDB(t)

	err := p.Delete(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

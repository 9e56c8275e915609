package model

import "time"

// Post represents a published blog post.
//
// AuthorID is set once at creation and never changes — editing a post never
// transfers authorship, and the column carries a foreign key to users.id.
// Content is treated as an opaque string; the editor may store rich text
// in it and the server doesn't care.
type Post struct {
	ID        int64     `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Content   string    `json:"content"   db:"content"`
	Slug      string    `json:"slug"      db:"slug"`
	AuthorID  int64     `json:"authorId"  db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

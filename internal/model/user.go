// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// WHY int64 IDs?
// IDs are assigned by SQLite's rowid/AUTOINCREMENT mechanism at insert time,
// so they're integers by nature. int64 matches what database/sql returns
// from LastInsertId, avoiding conversions everywhere.
//
// WHY PasswordHash WITH json:"-"?
// The hash must never leave the server — json:"-" guarantees it is dropped
// from every API response, even if a handler marshals the whole struct.
// It is only ever set through auth.PasswordService; nothing assigns it from
// request input.
//
// FavoritePlace defaults to "You" when left blank at registration — a quirk
// inherited from the original data set that existing rows depend on.
type User struct {
	ID            int64     `json:"id"            db:"id"`
	Username      string    `json:"username"      db:"username"`       // unique handle, e.g. "sakif"
	Name          string    `json:"name"          db:"name"`           // display name
	Email         string    `json:"email"         db:"email"`          // unique
	FavoritePlace string    `json:"favoritePlace" db:"favorite_place"` // optional, defaults to "You"
	ProfilePic    string    `json:"profilePic"    db:"profile_pic"`    // stored picture reference (may be empty)
	IsAdmin       bool      `json:"isAdmin"       db:"is_admin"`       // never null; false for new accounts
	PasswordHash  string    `json:"-"             db:"password_hash"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
}

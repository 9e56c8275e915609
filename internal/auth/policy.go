package auth

import "github.com/sakif/microblog/internal/model"

// CanModify reports whether actor may edit or delete a resource owned by
// ownerID. Owners may touch their own resources; admins may touch anything.
// A nil actor is anonymous and may modify nothing.
//
// The same rule gates post edit/delete and user update/delete — the
// "resource owner" for a user-targeted operation is the user themselves.
func CanModify(actor *model.User, ownerID int64) bool {
	if actor == nil {
		return false
	}
	return actor.ID == ownerID || actor.IsAdmin
}

// CanViewAdminArea reports whether actor may see admin-only surfaces
// (the user roster, privilege toggling).
func CanViewAdminArea(actor *model.User) bool {
	return actor != nil && actor.IsAdmin
}

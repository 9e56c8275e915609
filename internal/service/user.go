// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes to the database
//
// Services accept primitives and typed inputs, never *http.Request, and
// return domain errors from internal/apperror, never status codes. The
// handler layer does the translation in both directions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// Validation constants.
const (
	MaxUsernameLength = 20
	MaxNameLength     = 200
	MaxEmailLength    = 200

	// DefaultFavoritePlace fills the optional favorite-place field when a
	// registration leaves it blank.
	DefaultFavoritePlace = "You"
)

// UserService handles registration, profile management, and administration
// of user accounts.
type UserService struct {
	repo      repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
func NewUserService(repo repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput carries the fields a new account may set. Nothing else —
// in particular, neither is_admin nor the hash itself can be supplied.
type RegisterInput struct {
	Username      string
	Name          string
	Email         string
	FavoritePlace string
	Password      string
}

// Register creates a new user account.
//
// The admin flag is always false for new accounts, the ID and timestamp are
// assigned by the store, and the password is hashed through the credential
// service — the plaintext is never stored or logged.
//
// DUPLICATE HANDLING:
// We pre-check username and email to produce a friendly error without
// paying for a bcrypt hash, but the pre-check is only an optimization. Two
// concurrent registrations can both pass it; the UNIQUE constraints in the
// store decide the winner, and the loser still gets ErrDuplicate.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email address is not valid")
	}

	if existing, err := s.repo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperror.Duplicate("username", username)
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperror.Duplicate("email", email)
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	favoritePlace := strings.TrimSpace(input.FavoritePlace)
	if favoritePlace == "" {
		favoritePlace = DefaultFavoritePlace
	}

	user := &model.User{
		Username:      username,
		Name:          name,
		Email:         email,
		FavoritePlace: favoritePlace,
		IsAdmin:       false,
		PasswordHash:  hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// GetByID returns the user for the given ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// ProfileUpdate enumerates exactly the fields a profile update may change.
// Pointer fields distinguish "leave unchanged" (nil) from "set to this value".
// Anything not listed here — the admin flag, the password hash, the ID —
// simply cannot be expressed, which is the point.
type ProfileUpdate struct {
	Username       *string
	Name           *string
	Email          *string
	FavoritePlace  *string
	ProfilePicName *string // original filename of an uploaded picture; "" clears it
}

// UpdateProfile applies a ProfileUpdate to the target user.
//
// Gating: the target themselves or an admin. Uniqueness of username/email
// is re-validated when those fields change, with the store's constraints as
// the final word.
//
// A provided picture filename is stored as "<uuid>_<filename>" — the
// reference the excluded upload layer would save the bytes under. Storage
// of the actual file is not this service's concern.
func (s *UserService) UpdateProfile(ctx context.Context, actor *model.User, targetID int64, input ProfileUpdate) (*model.User, error) {
	if targetID <= 0 {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !auth.CanModify(actor, user.ID) {
		return nil, apperror.Forbidden("you are not allowed to update this profile")
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, apperror.ValidationFailed("username", "username must not be empty")
		}
		if len(username) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
		}
		user.Username = username
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		user.Name = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperror.ValidationFailed("email", "email address is not valid")
		}
		user.Email = email
	}
	if input.FavoritePlace != nil {
		user.FavoritePlace = strings.TrimSpace(*input.FavoritePlace)
	}
	if input.ProfilePicName != nil {
		if *input.ProfilePicName == "" {
			user.ProfilePic = ""
		} else {
			user.ProfilePic = uuid.NewString() + "_" + *input.ProfilePicName
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		s.logger.Error("failed to update user",
			slog.Int64("id", targetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating user profile: %w", err)
	}

	s.logger.Info("user profile updated",
		slog.Int64("id", user.ID),
		slog.Int64("actorID", actor.ID),
	)

	return user, nil
}

// SetAdmin grants or revokes admin privileges on the target account.
//
// Only an admin actor may call this. A target already in the desired state
// is a surfaced no-op — changed comes back false and no write happens —
// matching the "user is already admin" informational outcome rather than
// an error.
func (s *UserService) SetAdmin(ctx context.Context, actor *model.User, targetID int64, desired bool) (user *model.User, changed bool, err error) {
	if !auth.CanViewAdminArea(actor) {
		return nil, false, apperror.Forbidden("you are not allowed to alter admin privileges")
	}

	user, err = s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, false, err
	}

	if user.IsAdmin == desired {
		return user, false, nil
	}

	if err := s.repo.SetAdmin(ctx, targetID, desired); err != nil {
		s.logger.Error("failed to set admin flag",
			slog.Int64("id", targetID),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("setting admin flag: %w", err)
	}
	user.IsAdmin = desired

	s.logger.Info("admin privileges changed",
		slog.Int64("id", targetID),
		slog.Bool("isAdmin", desired),
		slog.Int64("actorID", actor.ID),
	)

	return user, true, nil
}

// Delete removes a user account and, through the store's cascade, all of
// their posts. Allowed for the account owner and for admins.
func (s *UserService) Delete(ctx context.Context, actor *model.User, targetID int64) error {
	if targetID <= 0 {
		return apperror.ValidationFailed("id", "user ID is required")
	}
	if !auth.CanModify(actor, targetID) {
		return apperror.Forbidden("you don't have permission to delete this user")
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		slog.Int64("id", targetID),
		slog.Int64("actorID", actor.ID),
	)
	return nil
}

// List returns the user roster, newest accounts first. Admin-only — this
// backs the admin area.
func (s *UserService) List(ctx context.Context, actor *model.User, limit, offset int) ([]model.User, error) {
	if !auth.CanViewAdminArea(actor) {
		return nil, apperror.Forbidden("you do not have admin privileges")
	}

	users, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

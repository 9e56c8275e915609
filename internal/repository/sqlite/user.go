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

// UserDB implements repository.UserRepository over the shared connection
// pool. Obtain one with DB.Users().
type UserDB struct {
	conn *sql.DB
}

// Compile-time check that *UserDB implements repository.UserRepository.
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, username, name, email, favorite_place, profile_pic, is_admin, password_hash, created_at`

// Create inserts a new user and assigns the generated ID and timestamp back
// onto the struct.
//
// DUPLICATES:
// The UNIQUE constraints on username and email decide conflicts — two
// concurrent Creates with the same username cannot both succeed, no matter
// what any earlier pre-check saw. A constraint failure comes back as
// apperror.ErrDuplicate naming the offending field.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, name, email, favorite_place, profile_pic, is_admin, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Name,
		user.Email,
		user.FavoritePlace,
		user.ProfilePic,
		user.IsAdmin,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "email":
				return apperror.Duplicate("email", user.Email)
			default:
				return apperror.Duplicate("username", user.Username)
			}
		}
		return fmt.Errorf("sqlite: creating user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by their ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetByUsername retrieves a user by their unique username.
func (db *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `WHERE username = ?`, username)
}

// GetByEmail retrieves a user by their unique email.
func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

// getUser runs a single-row lookup with the given WHERE clause.
// sql.ErrNoRows translates to the domain's NotFound error — a common
// pattern: the handler layer never sees database/sql errors.
func (db *UserDB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.FavoritePlace,
		&u.ProfilePic,
		&u.IsAdmin,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
			}
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}

// Update persists the user's mutable profile fields.
//
// password_hash and is_admin are deliberately absent from the SET list —
// they change only through their dedicated operations (credential setting
// and SetAdmin), never through a profile update.
func (db *UserDB) Update(ctx context.Context, user *model.User) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, name = ?, email = ?, favorite_place = ?, profile_pic = ?
		 WHERE id = ?`,
		user.Username,
		user.Name,
		user.Email,
		user.FavoritePlace,
		user.ProfilePic,
		user.ID,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "email":
				return apperror.Duplicate("email", user.Email)
			default:
				return apperror.Duplicate("username", user.Username)
			}
		}
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// SetAdmin flips only the admin flag.
func (db *UserDB) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE id = ?`, isAdmin, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting admin flag for user %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// Delete removes a user. The ON DELETE CASCADE on posts.author_id removes
// their posts in the same statement — one atomic unit, never a half-deleted
// account.
func (db *UserDB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// List returns users newest-first, paginated. This backs the admin roster.
func (db *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
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

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Name, &u.Email, &u.FavoritePlace,
			&u.ProfilePic, &u.IsAdmin, &u.PasswordHash, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// =========================================================================
// FAKE USER REPOSITORY
// =========================================================================

// fakeUserRepo is a hand-written in-memory UserRepository. Only the lookups
// the SessionManager actually uses are meaningful; the write methods exist
// to satisfy the interface.
type fakeUserRepo struct {
	users map[int64]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	if u, ok := r.users[id]; ok {
		u.IsAdmin = isAdmin
	}
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

// compile-time check: the fake must track the real interface
var _ repository.UserRepository = (*fakeUserRepo)(nil)

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSessionManager builds a SessionManager over the given users, with
// fast bcrypt and a deterministic token secret.
func newTestSessionManager(t *testing.T, users ...*model.User) *SessionManager {
	t.Helper()
	return NewSessionManager(
		newFakeUserRepo(users...),
		newTestPasswordService(),
		newTestTokenService(t),
		testLogger(),
	)
}

// testUser creates a user whose password is hashed with the test cost.
func testUser(t *testing.T, id int64, username, password string, isAdmin bool) *model.User {
	t.Helper()
	hash, err := newTestPasswordService().Hash(password)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	return &model.User{
		ID:           id,
		Username:     username,
		Name:         "Test " + username,
		Email:        username + "@example.com",
		IsAdmin:      isAdmin,
		PasswordHash: hash,
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	user := testUser(t, 1, "sakif", "hunter22", false)
	sm := newTestSessionManager(t, user)

	token, got, err := sm.Login(context.Background(), "sakif", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Error("Login() returned empty token")
	}
	if got.ID != 1 || got.Username != "sakif" {
		t.Errorf("Login() user = %+v, want id 1 username sakif", got)
	}
	if sm.ActiveSessions() != 1 {
		t.Errorf("ActiveSessions() = %d, want 1", sm.ActiveSessions())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := testUser(t, 1, "sakif", "hunter22", false)
	sm := newTestSessionManager(t, user)

	_, _, err := sm.Login(context.Background(), "sakif", "wrong-password")
	if err == nil {
		t.Fatal("Login() should fail for a wrong password")
	}
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Login() error = %v, want ErrUnauthenticated", err)
	}
	if sm.ActiveSessions() != 0 {
		t.Error("a failed login must not create a session")
	}
}

func TestLogin_UnknownUsername(t *testing.T) {
	sm := newTestSessionManager(t)

	_, _, err := sm.Login(context.Background(), "nobody", "whatever")
	if err == nil {
		t.Fatal("Login() should fail for an unknown username")
	}
	// Same error kind as a wrong password — the caller can't tell which
	// half of the pair was wrong.
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Login() error = %v, want ErrUnauthenticated", err)
	}
}

func TestLogin_FailureIsIndistinguishable(t *testing.T) {
	user := testUser(t, 1, "sakif", "hunter22", false)
	sm := newTestSessionManager(t, user)

	_, _, errWrongPass := sm.Login(context.Background(), "sakif", "nope")
	_, _, errNoUser := sm.Login(context.Background(), "ghost", "nope")

	if errWrongPass.Error() != errNoUser.Error() {
		t.Errorf("login failures must read identically: %q vs %q",
			errWrongPass.Error(), errNoUser.Error())
	}
}

func TestLogin_CorruptStoredHash(t *testing.T) {
	user := testUser(t, 1, "sakif", "hunter22", false)
	user.PasswordHash = "plaintext-oops" // not a bcrypt hash at all
	sm := newTestSessionManager(t, user)

	_, _, err := sm.Login(context.Background(), "sakif", "hunter22")
	if err == nil {
		t.Fatal("Login() should fail when the stored hash is unreadable")
	}
	if !errors.Is(err, apperror.ErrCorruptHash) {
		t.Errorf("Login() error = %v, want ErrCorruptHash", err)
	}
	if errors.Is(err, apperror.ErrUnauthenticated) {
		t.Error("a corrupt hash must never be reported as invalid credentials")
	}
}

func TestLogin_ConcurrentSessionsAreIndependent(t *testing.T) {
	user := testUser(t, 1, "sakif", "hunter22", false)
	sm := newTestSessionManager(t, user)
	ctx := context.Background()

	token1, _, err := sm.Login(ctx, "sakif", "hunter22")
	if err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	token2, _, err := sm.Login(ctx, "sakif", "hunter22")
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if sm.ActiveSessions() != 2 {
		t.Fatalf("ActiveSessions() = %d, want 2", sm.ActiveSessions())
	}

	// Killing one session must not touch the other.
	sm.Logout(token1)

	if u, _ := sm.CurrentUser(ctx, token1); u != nil {
		t.Error("logged-out session still resolves")
	}
	if u, _ := sm.CurrentUser(ctx, token2); u == nil {
		t.Error("logout of one session killed a sibling session")
	}
}

// =========================================================================
// Logout TESTS
// =========================================================================

func TestLogout_KillsSessionImmediately(t *testing.T) {
	user := testUser(t, 1, "sakif", "hunter22", false)
	sm := newTestSessionManager(t, user)
	ctx := context.Background()

	token, _, err := sm.Login(ctx, "sakif", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	sm.Logout(token)

	// The token's signature is still valid, but the binding is gone — it
	// must stop resolving right now, not at expiry.
	u, err := sm.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if u != nil {
		t.Error("CurrentUser() still resolves after Logout()")
	}
	if sm.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d after logout, want 0", sm.ActiveSessions())
	}
}

func TestLogout_Idempotent(t *testing.T) {
	user := testUser(t, 1, "sakif", "hunter22", false)
	sm := newTestSessionManager(t, user)

	token, _, _ := sm.Login(context.Background(), "sakif", "hunter22")

	// Logging out twice, or with garbage, must be a quiet no-op.
	sm.Logout(token)
	sm.Logout(token)
	sm.Logout("not-a-token")
	sm.Logout("")

	if sm.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", sm.ActiveSessions())
	}
}

// =========================================================================
// CurrentUser TESTS
// =========================================================================

func TestCurrentUser_AnonymousStates(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "definitely-not-a-jwt"},
		{"well-formed but unsigned-by-us", "eyJhbGciOiJIUzI1NiJ9.e30.bogus"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := sm.CurrentUser(ctx, tc.token)
			if err != nil {
				t.Fatalf("CurrentUser() error = %v — anonymous is not an error", err)
			}
			if u != nil {
				t.Errorf("CurrentUser() = %+v, want nil", u)
			}
		})
	}
}

func TestCurrentUser_ResolvesRepoUser(t *testing.T) {
	user := testUser(t, 5, "farah", "pass-word", false)
	sm := newTestSessionManager(t, user)
	ctx := context.Background()

	token, _, err := sm.Login(ctx, "farah", "pass-word")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	got, err := sm.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if got == nil || got.ID != 5 || got.Username != "farah" {
		t.Errorf("CurrentUser() = %+v, want id 5 username farah", got)
	}
}

func TestCurrentUser_DeletedAccountKillsSession(t *testing.T) {
	user := testUser(t, 5, "farah", "pass-word", false)
	repo := newFakeUserRepo(user)
	sm := NewSessionManager(repo, newTestPasswordService(), newTestTokenService(t), testLogger())
	ctx := context.Background()

	token, _, err := sm.Login(ctx, "farah", "pass-word")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Delete the account out from under the live session.
	if err := repo.Delete(ctx, 5); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := sm.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if got != nil {
		t.Errorf("CurrentUser() = %+v for a deleted account, want nil", got)
	}
	// The orphaned binding should be purged, not left to hit the store
	// on every request.
	if sm.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0 after orphan purge", sm.ActiveSessions())
	}
}

// =========================================================================
// IsAdmin TESTS
// =========================================================================

func TestIsAdmin(t *testing.T) {
	admin := testUser(t, 1, "root", "admin-pass", true)
	regular := testUser(t, 2, "pleb", "user-pass", false)
	sm := newTestSessionManager(t, admin, regular)
	ctx := context.Background()

	adminToken, _, err := sm.Login(ctx, "root", "admin-pass")
	if err != nil {
		t.Fatalf("admin Login() error = %v", err)
	}
	userToken, _, err := sm.Login(ctx, "pleb", "user-pass")
	if err != nil {
		t.Fatalf("user Login() error = %v", err)
	}

	if !sm.IsAdmin(ctx, adminToken) {
		t.Error("IsAdmin() = false for an admin session")
	}
	if sm.IsAdmin(ctx, userToken) {
		t.Error("IsAdmin() = true for a regular session")
	}
	if sm.IsAdmin(ctx, "") {
		t.Error("IsAdmin() = true for an anonymous caller")
	}
}

package account

import (
	"context"
	"testing"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/example/task-tracker/pkg/validator"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get test connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T, opts ...ServiceOption) (*AuthService, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	svc := NewAuthService(NewUserRepository(db), NewPasswordHasher(bcrypt.MinCost), &mockLogger{}, opts...)
	return svc, db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&domain.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	return count
}

func register(t *testing.T, svc *AuthService, username, email, password string) *UserInfo {
	t.Helper()

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username:             username,
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !resp.Errors.Valid() {
		t.Fatalf("Register() validation errors = %v", resp.Errors)
	}
	return resp.User
}

func TestAuthService_Register(t *testing.T) {
	svc, db := newTestService(t)

	user := register(t, svc, "alice", "alice@example.com", "correct-horse")

	if user.ID == 0 {
		t.Error("expected user ID to be assigned")
	}
	if !user.Active {
		t.Error("expected new account to be active")
	}

	var stored domain.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("failed to load stored user: %v", err)
	}
	if stored.PasswordHash == "correct-horse" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_RegisterDuplicateUsername(t *testing.T) {
	svc, db := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "correct-horse")

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username:             "alice",
		Email:                "another@example.com",
		Password:             "battery-staple",
		PasswordConfirmation: "battery-staple",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := resp.Errors.Code(FieldUsername); got != CodeDuplicateUsername {
		t.Errorf("username code = %q, want %q", got, CodeDuplicateUsername)
	}
	if resp.User != nil {
		t.Error("expected no user on failure")
	}
	if n := countUsers(t, db); n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestAuthService_RegisterUsernameIsCaseSensitive(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "correct-horse")

	user := register(t, svc, "Alice", "Alice2@example.com", "correct-horse")
	if user.Username != "Alice" {
		t.Errorf("Username = %q, want %q", user.Username, "Alice")
	}
}

func TestAuthService_RegisterPasswordMismatch(t *testing.T) {
	svc, db := newTestService(t)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username:             "bob",
		Email:                "bob@example.com",
		Password:             "first-choice",
		PasswordConfirmation: "second-choice",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := resp.Errors.Code(validator.NonField); got != CodePasswordMismatch {
		t.Errorf("code = %q, want %q", got, CodePasswordMismatch)
	}
	if len(resp.Errors) != 1 {
		t.Errorf("expected only the mismatch error, got %v", resp.Errors)
	}
	if n := countUsers(t, db); n != 0 {
		t.Errorf("users = %d, want 0", n)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	alice := register(t, svc, "alice", "alice@example.com", "correct-horse")
	carol := register(t, svc, "carol", "carol@example.com", "correct-horse")
	dave := register(t, svc, "dave", "dave@example.com", "correct-horse")

	if err := db.Model(&domain.User{}).Where("id = ?", carol.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := db.Model(&domain.User{}).Where("id = ?", dave.ID).Update("blocked", true).Error; err != nil {
		t.Fatalf("block: %v", err)
	}

	tests := []struct {
		name     string
		login    string
		password string
		want     AuthFailure
		wantID   uint
	}{
		{name: "username", login: "alice", password: "correct-horse", wantID: alice.ID},
		{name: "email", login: "alice@example.com", password: "correct-horse", wantID: alice.ID},
		{name: "wrong password", login: "alice", password: "wrong", want: FailureInvalidCredentials},
		{name: "unknown user", login: "mallory", password: "correct-horse", want: FailureInvalidCredentials},
		{name: "empty login", login: "", password: "correct-horse", want: FailureInvalidCredentials},
		{name: "inactive", login: "carol", password: "correct-horse", want: FailureAccountInactive},
		{name: "inactive with wrong password", login: "carol", password: "wrong", want: FailureInvalidCredentials},
		{name: "blocked", login: "dave", password: "correct-horse", want: FailureAccountBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Authenticate(ctx, &AuthenticateRequest{Login: tt.login, Password: tt.password})
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if resp.Failure != tt.want {
				t.Fatalf("Failure = %q, want %q", resp.Failure, tt.want)
			}
			if tt.want != "" {
				if resp.User != nil || resp.Authenticated() {
					t.Error("failed authentication must not return a user")
				}
				return
			}
			if !resp.Authenticated() || resp.User.ID != tt.wantID {
				t.Errorf("User = %+v, want id %d", resp.User, tt.wantID)
			}
		})
	}
}

func TestAuthService_AuthenticateWrongPasswordMatchesUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "alice", "alice@example.com", "correct-horse")

	wrong, err := svc.Authenticate(ctx, &AuthenticateRequest{Login: "alice", Password: "nope"})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	unknown, err := svc.Authenticate(ctx, &AuthenticateRequest{Login: "nobody", Password: "nope"})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if *wrong != *unknown {
		t.Errorf("responses differ: %+v vs %+v", wrong, unknown)
	}
}

func TestAuthService_CustomLoginChecks(t *testing.T) {
	deny := func(u *domain.User) AuthFailure {
		if u.Username == "eve" {
			return FailureAccountBlocked
		}
		return ""
	}
	svc, db := newTestService(t, WithLoginChecks(deny))
	ctx := context.Background()

	register(t, svc, "eve", "eve@example.com", "correct-horse")
	frank := register(t, svc, "frank", "frank@example.com", "correct-horse")

	// Replacing the checks drops the default blocked-flag check.
	if err := db.Model(&domain.User{}).Where("id = ?", frank.ID).Update("blocked", true).Error; err != nil {
		t.Fatalf("block: %v", err)
	}

	resp, err := svc.Authenticate(ctx, &AuthenticateRequest{Login: "eve", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if resp.Failure != FailureAccountBlocked {
		t.Errorf("Failure = %q, want %q", resp.Failure, FailureAccountBlocked)
	}

	resp, err = svc.Authenticate(ctx, &AuthenticateRequest{Login: "frank", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !resp.Authenticated() {
		t.Errorf("Failure = %q, want success", resp.Failure)
	}
}

func TestAuthService_GetUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := register(t, svc, "alice", "alice@example.com", "correct-horse")

	found, err := svc.GetUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if !found.Found || found.User.Username != "alice" {
		t.Errorf("GetUser() = %+v", found)
	}

	missing, err := svc.GetUser(ctx, alice.ID+1)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if missing.Found || missing.User != nil {
		t.Errorf("GetUser() for unknown id = %+v", missing)
	}
}

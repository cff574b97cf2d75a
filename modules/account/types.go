package account

import (
	"context"
	"time"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/example/task-tracker/pkg/validator"
)

// RegisterRequest is the request for creating an account.
type RegisterRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// RegisterResponse carries either the created user or the validation errors.
type RegisterResponse struct {
	User   *UserInfo        `json:"user,omitempty"`
	Errors validator.Errors `json:"errors,omitempty"`
}

// AuthenticateRequest is the request for checking sign-in credentials.
// Login may be a username or an email address.
type AuthenticateRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthFailure explains why an authentication attempt was refused.
type AuthFailure string

const (
	FailureInvalidCredentials AuthFailure = "invalid_credentials"
	FailureAccountInactive    AuthFailure = "account_inactive"
	FailureAccountBlocked     AuthFailure = "account_blocked"
)

// AuthenticateResponse carries the authenticated user, or the failure reason.
type AuthenticateResponse struct {
	User    *UserInfo   `json:"user,omitempty"`
	Failure AuthFailure `json:"failure,omitempty"`
}

// Authenticated reports whether the credentials were accepted.
func (r *AuthenticateResponse) Authenticated() bool {
	return r.Failure == "" && r.User != nil
}

// GetUserRequest is the request for loading a user.
type GetUserRequest struct {
	UserID uint `json:"user_id"`
}

// GetUserResponse is the response for loading a user.
type GetUserResponse struct {
	User  *UserInfo `json:"user,omitempty"`
	Found bool      `json:"found"`
}

// UserInfo is the public view of an account. It never includes the password hash.
type UserInfo struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthPort defines the account operations available to other modules.
type AuthPort interface {
	Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error)
	Authenticate(ctx context.Context, req *AuthenticateRequest) (*AuthenticateResponse, error)
	GetUser(ctx context.Context, userID uint) (*GetUserResponse, error)
}

func toUserInfo(u *domain.User) *UserInfo {
	return &UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/example/task-tracker/pkg/validator"
	"github.com/go-monolith/mono/pkg/types"
)

// LoginCheck inspects an account whose password has already been verified.
// It returns a non-empty AuthFailure to refuse the sign in.
type LoginCheck func(u *domain.User) AuthFailure

// CheckNotBlocked refuses accounts flagged as blocked.
func CheckNotBlocked(u *domain.User) AuthFailure {
	if u.Blocked {
		return FailureAccountBlocked
	}
	return ""
}

// AuthService implements registration and authentication.
// It satisfies AuthPort, so in-process callers and tests can use it directly.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	checks []LoginCheck
	logger types.Logger

	dummyOnce sync.Once
	dummyHash string
}

var _ AuthPort = (*AuthService)(nil)

// ServiceOption customizes an AuthService.
type ServiceOption func(*AuthService)

// WithLoginChecks replaces the account-state checks run after the password matches.
func WithLoginChecks(checks ...LoginCheck) ServiceOption {
	return func(s *AuthService) {
		s.checks = checks
	}
}

// NewAuthService creates a new AuthService. By default blocked accounts cannot sign in.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, logger types.Logger, opts ...ServiceOption) *AuthService {
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		checks: []LoginCheck{CheckNotBlocked},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the candidate account and persists it with a hashed password.
// Validation failures are returned in the response, not as an error.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	candidate := newRegistration(req)

	if candidate.Username != "" {
		taken, err := s.repo.UsernameExists(ctx, candidate.Username)
		if err != nil {
			return nil, err
		}
		candidate.usernameTaken = taken
	}
	if candidate.Email != "" {
		taken, err := s.repo.EmailExists(ctx, candidate.Email)
		if err != nil {
			return nil, err
		}
		candidate.emailTaken = taken
	}

	if errs := validator.Validate(candidate, registrationRules); !errs.Valid() {
		return &RegisterResponse{Errors: errs}, nil
	}

	hash, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     candidate.Username,
		Email:        candidate.Email,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Lost a race with a concurrent registration.
			return &RegisterResponse{Errors: validator.Errors{
				FieldUsername: {Code: CodeDuplicateUsername, Message: "A user with that username already exists."},
			}}, nil
		}
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return &RegisterResponse{User: toUserInfo(user)}, nil
}

// Authenticate checks a username-or-email and password pair.
// Unknown accounts and wrong passwords produce the same FailureInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, req *AuthenticateRequest) (*AuthenticateResponse, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return &AuthenticateResponse{Failure: FailureInvalidCredentials}, nil
	}

	user, err := s.repo.FindByLogin(ctx, login)
	if errors.Is(err, ErrUserNotFound) {
		// Spend the same time as a real comparison.
		s.hasher.Verify(req.Password, s.placeholderHash())
		return &AuthenticateResponse{Failure: FailureInvalidCredentials}, nil
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return &AuthenticateResponse{Failure: FailureInvalidCredentials}, nil
	}
	if !user.Active {
		return &AuthenticateResponse{Failure: FailureAccountInactive}, nil
	}
	for _, check := range s.checks {
		if failure := check(user); failure != "" {
			return &AuthenticateResponse{Failure: failure}, nil
		}
	}

	s.logger.Info("User authenticated", "user_id", user.ID)
	return &AuthenticateResponse{User: toUserInfo(user)}, nil
}

// GetUser loads a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*GetUserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return &GetUserResponse{Found: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &GetUserResponse{User: toUserInfo(user), Found: true}, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err != nil {
			s.logger.Warn("Failed to prepare placeholder hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

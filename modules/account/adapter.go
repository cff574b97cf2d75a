package account

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthAdapter implements AuthPort using the account module's service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Register creates an account via the register service.
func (a *AuthAdapter) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRegister,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}

	return &resp, nil
}

// Authenticate checks credentials via the authenticate service.
func (a *AuthAdapter) Authenticate(ctx context.Context, req *AuthenticateRequest) (*AuthenticateResponse, error) {
	var resp AuthenticateResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAuthenticate,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("authenticate request failed: %w", err)
	}

	return &resp, nil
}

// GetUser retrieves a user by ID via the get-user service.
func (a *AuthAdapter) GetUser(ctx context.Context, userID uint) (*GetUserResponse, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}

	return &resp, nil
}

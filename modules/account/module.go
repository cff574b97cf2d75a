package account

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/example/task-tracker/modules/database"
	"github.com/example/task-tracker/pkg/env"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Service names exposed by the account module.
const (
	ServiceRegister     = "register"
	ServiceAuthenticate = "authenticate"
	ServiceGetUser      = "get-user"
)

// AccountModule owns user accounts and exposes registration and sign-in services.
type AccountModule struct {
	database   *database.PluginModule
	service    *AuthService
	bcryptCost int
	logger     types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AccountModule)(nil)
var _ mono.ServiceProviderModule = (*AccountModule)(nil)
var _ mono.UsePluginModule = (*AccountModule)(nil)
var _ mono.HealthCheckableModule = (*AccountModule)(nil)

// NewModule creates a new AccountModule. BCRYPT_COST overrides the hashing cost.
func NewModule(logger types.Logger) *AccountModule {
	return &AccountModule{
		bcryptCost: env.Int("BCRYPT_COST", DefaultBcryptCost),
		logger:     logger.WithModule("account"),
	}
}

// Name returns the module name.
func (m *AccountModule) Name() string {
	return "account"
}

// SetPlugin receives the database plugin from the framework.
func (m *AccountModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "db" {
		return
	}
	db, ok := plugin.(*database.PluginModule)
	if !ok {
		m.logger.Error("Invalid plugin type for db",
			"alias", alias,
			"expected", "*database.PluginModule")
		return
	}
	m.database = db
}

// Start migrates the users table and builds the service.
func (m *AccountModule) Start(_ context.Context) error {
	if m.database == nil {
		return fmt.Errorf("db plugin not set")
	}
	db, err := m.database.DB()
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate users: %w", err)
	}

	m.service = NewAuthService(NewUserRepository(db), NewPasswordHasher(m.bcryptCost), m.logger)
	m.logger.Info("Module started", "bcrypt_cost", m.bcryptCost)
	return nil
}

// Stop shuts down the module.
func (m *AccountModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

// Health reports whether the account store is reachable.
func (m *AccountModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil || m.database == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}
	if err := m.database.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// Service returns the account service for in-process callers.
func (m *AccountModule) Service() *AuthService {
	return m.service
}

// RegisterServices registers request-reply services in the service container.
func (m *AccountModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRegister,
		json.Unmarshal,
		json.Marshal,
		m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceAuthenticate,
		json.Unmarshal,
		json.Marshal,
		m.handleAuthenticate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAuthenticate, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetUser,
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceRegister, ServiceAuthenticate, ServiceGetUser})
	return nil
}

func (m *AccountModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	resp, err := m.service.Register(ctx, &req)
	if err != nil {
		return RegisterResponse{}, err
	}
	return *resp, nil
}

func (m *AccountModule) handleAuthenticate(ctx context.Context, req AuthenticateRequest, _ *mono.Msg) (AuthenticateResponse, error) {
	resp, err := m.service.Authenticate(ctx, &req)
	if err != nil {
		return AuthenticateResponse{}, err
	}
	return *resp, nil
}

func (m *AccountModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	resp, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{}, err
	}
	return *resp, nil
}

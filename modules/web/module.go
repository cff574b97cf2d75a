package web

import (
	"context"
	"fmt"

	"github.com/example/task-tracker/modules/account"
	"github.com/example/task-tracker/modules/database"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// WebModule serves the HTML pages over HTTP.
type WebModule struct {
	cfg      Config
	app      *fiber.App
	storage  fiber.Storage
	accounts account.AuthPort
	tasks    task.TaskPort
	database *database.PluginModule
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*WebModule)(nil)
var _ mono.DependentModule = (*WebModule)(nil)
var _ mono.UsePluginModule = (*WebModule)(nil)
var _ mono.HealthCheckableModule = (*WebModule)(nil)

// NewModule creates a new WebModule.
func NewModule(cfg Config, logger types.Logger) *WebModule {
	return &WebModule{
		cfg:    cfg,
		logger: logger.WithModule("web"),
	}
}

// Name returns the module name.
func (m *WebModule) Name() string {
	return "web"
}

// Dependencies returns the list of module dependencies.
func (m *WebModule) Dependencies() []string {
	return []string{"account", "task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *WebModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "account":
		m.accounts = account.NewAuthAdapter(container)
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	}
}

// SetPlugin receives the database plugin, used by the health endpoint.
func (m *WebModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "db" {
		return
	}
	if db, ok := plugin.(*database.PluginModule); ok {
		m.database = db
	}
}

// Start builds the Fiber application and starts listening.
func (m *WebModule) Start(_ context.Context) error {
	if m.accounts == nil {
		return fmt.Errorf("account dependency not set")
	}
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}

	sessions, storage := newSessionStore(m.cfg)
	srv := &server{
		handlers: NewHandlers(m.accounts, m.tasks, m.logger),
		accounts: m.accounts,
		sessions: sessions,
		logger:   m.logger,
	}
	if m.database != nil {
		srv.ping = m.database.Ping
	}

	app, err := newApp(m.cfg, srv)
	if err != nil {
		if storage != nil {
			_ = storage.Close()
		}
		return fmt.Errorf("failed to build http server: %w", err)
	}
	m.app = app
	m.storage = storage

	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started",
		"addr", m.cfg.Addr,
		"redis_sessions", storage != nil,
		"csrf", m.cfg.CSRF)
	return nil
}

// Stop shuts down the HTTP server and closes the session storage.
func (m *WebModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server...")
	err := m.app.Shutdown()
	if m.storage != nil {
		if closeErr := m.storage.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	m.app = nil
	return err
}

// Health returns the health status of the module.
func (m *WebModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":           m.cfg.Addr,
			"redis_sessions": m.storage != nil,
		},
	}
}

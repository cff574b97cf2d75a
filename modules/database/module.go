package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/task-tracker/pkg/env"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotStarted is returned by DB when the plugin has not been started.
var ErrNotStarted = errors.New("database plugin not started")

// Supported values for Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the connection settings for the shared database.
type Config struct {
	Driver       string
	DSN          string
	Debug        bool
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

// ConfigFromEnv loads Config from DB_* environment variables.
func ConfigFromEnv() Config {
	return Config{
		Driver:       env.String("DB_DRIVER", DriverSQLite),
		DSN:          env.String("DB_DSN", "tasks.db"),
		Debug:        env.Bool("DB_DEBUG", false),
		MaxOpenConns: env.Int("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: env.Int("DB_MAX_IDLE_CONNS", 25),
		MaxIdleTime:  env.Duration("DB_MAX_IDLE_TIME", 15*time.Minute),
	}
}

// Open connects to the configured database and applies the pool settings.
func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}

	return db, nil
}

// PluginModule owns the database connection shared by the account and task modules.
// Plugins start before and stop after regular modules.
type PluginModule struct {
	container types.ServiceContainer
	db        *gorm.DB
	cfg       Config
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a database plugin with the given configuration.
func NewPluginModule(cfg Config) *PluginModule {
	return &PluginModule{cfg: cfg}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "database"
}

// Start opens the connection pool.
func (m *PluginModule) Start(_ context.Context) error {
	db, err := Open(m.cfg)
	if err != nil {
		return err
	}
	m.db = db
	log.Printf("[database] Plugin started (driver: %s)", m.cfg.Driver)
	return nil
}

// Stop closes the connection pool.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				return fmt.Errorf("failed to close database: %w", err)
			}
		}
	}
	log.Println("[database] Plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// DB returns the shared connection, or ErrNotStarted before Start.
func (m *PluginModule) DB() (*gorm.DB, error) {
	if m.db == nil {
		return nil, ErrNotStarted
	}
	return m.db, nil
}

// Ping checks that the database answers.
func (m *PluginModule) Ping(ctx context.Context) error {
	if m.db == nil {
		return ErrNotStarted
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Health returns the current health status.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if err := m.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	sqlDB, _ := m.db.DB()
	stats := sqlDB.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":           m.cfg.Driver,
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
		},
	}
}

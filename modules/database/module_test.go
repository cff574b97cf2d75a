package database

import (
	"context"
	"errors"
	"testing"
)

func memoryConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle", DSN: "whatever"})
	if err == nil {
		t.Fatal("Open() expected error for unsupported driver")
	}
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(memoryConfig())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var one int
	if err := db.Raw("SELECT 1").Scan(&one).Error; err != nil {
		t.Fatalf("query error = %v", err)
	}
	if one != 1 {
		t.Errorf("SELECT 1 = %d, want 1", one)
	}
}

func TestPluginModule_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewPluginModule(memoryConfig())

	if m.Name() != "database" {
		t.Errorf("Name() = %q, want %q", m.Name(), "database")
	}

	if _, err := m.DB(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("DB() before Start error = %v, want ErrNotStarted", err)
	}
	if health := m.Health(ctx); health.Healthy {
		t.Error("Health() before Start should be unhealthy")
	}

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := m.DB(); err != nil {
		t.Errorf("DB() error = %v", err)
	}
	health := m.Health(ctx)
	if !health.Healthy {
		t.Errorf("Health() = %+v, want healthy", health)
	}
	if health.Details["driver"] != DriverSQLite {
		t.Errorf("Health() driver = %v, want %q", health.Details["driver"], DriverSQLite)
	}

	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=localhost dbname=tasks")
	t.Setenv("DB_DEBUG", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "5")

	cfg := ConfigFromEnv()

	if cfg.Driver != DriverPostgres {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverPostgres)
	}
	if cfg.DSN != "host=localhost dbname=tasks" {
		t.Errorf("DSN = %q", cfg.DSN)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.MaxOpenConns != 5 {
		t.Errorf("MaxOpenConns = %d, want 5", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 25 {
		t.Errorf("MaxIdleConns = %d, want default 25", cfg.MaxIdleConns)
	}
}

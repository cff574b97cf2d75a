package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/task-tracker/modules/account"
	"github.com/example/task-tracker/modules/database"
	"github.com/example/task-tracker/modules/task"
	"github.com/example/task-tracker/modules/web"
	"github.com/example/task-tracker/pkg/env"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	shutdownTimeout := env.Duration("SHUTDOWN_TIMEOUT", 30*time.Second)
	dbConfig := database.ConfigFromEnv()
	webConfig := web.ConfigFromEnv()

	log.Println("=== Task Tracker ===")
	log.Printf("Database: %s (%s)", dbConfig.Driver, dbConfig.DSN)
	log.Printf("HTTP Address: %s", webConfig.Addr)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// The framework calls SetPlugin("db", ...) on every UsePluginModule.
	if err := app.RegisterPlugin(database.NewPluginModule(dbConfig), "db"); err != nil {
		log.Fatalf("Failed to register database plugin: %v", err)
	}

	logger := app.Logger()

	// Order: independent modules first, then dependent modules
	app.Register(account.NewModule(logger))
	app.Register(task.NewModule(logger))
	app.Register(web.NewModule(webConfig, logger)) // Depends on account and task

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(webConfig.Addr)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(addr string) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Pages (http://localhost%s):", addr)
	log.Println("")
	log.Println("  Public:")
	log.Println("  GET       /                  - Home")
	log.Println("  GET,POST  /signup/           - Create an account")
	log.Println("  GET,POST  /signin/           - Sign in with username or email")
	log.Println("  GET       /healthz           - Health check")
	log.Println("")
	log.Println("  Signed in:")
	log.Println("  GET       /list/             - Pending tasks")
	log.Println("  GET       /completed/        - Completed tasks")
	log.Println("  GET,POST  /create/           - New task")
	log.Println("  GET,POST  /{id}/             - Task detail and edit")
	log.Println("  POST      /{id}/complete/    - Mark completed")
	log.Println("  POST      /{id}/remove/      - Delete")
	log.Println("  POST      /logout/           - Sign out")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

package task

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Every pooled connection to ":memory:" is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get test connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTask(t *testing.T, repo *Repository, owner uint, title string) *domain.Task {
	t.Helper()

	task := &domain.Task{Title: title, UserID: owner}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return task
}

func TestRepository_Create(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	task := createTask(t, repo, 1, "Buy milk")

	if task.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}
	if task.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if task.CompletedAt != nil {
		t.Error("expected new task to be pending")
	}
	if task.Important {
		t.Error("expected Important to default to false")
	}
}

func TestRepository_FindByIDAndOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	task := createTask(t, repo, 1, "Write report")

	tests := []struct {
		name    string
		id      uint
		owner   uint
		wantErr error
	}{
		{name: "owner finds task", id: task.ID, owner: 1},
		{name: "other owner gets not found", id: task.ID, owner: 2, wantErr: ErrNotFound},
		{name: "missing id gets not found", id: task.ID + 100, owner: 1, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByIDAndOwner(ctx, tt.id, tt.owner)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindByIDAndOwner() error = %v, want %v", err, tt.wantErr)
				}
				if found != nil {
					t.Error("expected no task on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FindByIDAndOwner() error = %v", err)
			}
			if found.Title != "Write report" {
				t.Errorf("expected title %q, got %q", "Write report", found.Title)
			}
		})
	}
}

func TestRepository_ListPendingAndCompleted(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	first := createTask(t, repo, 1, "first")
	second := createTask(t, repo, 1, "second")
	third := createTask(t, repo, 1, "third")
	createTask(t, repo, 2, "someone else's")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := repo.Complete(ctx, first.ID, 1, base); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := repo.Complete(ctx, third.ID, 1, base.Add(time.Hour)); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	pending, err := repo.ListPending(ctx, 1)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("ListPending() = %v, want only task %d", pending, second.ID)
	}
	for _, p := range pending {
		if p.CompletedAt != nil {
			t.Errorf("pending list contains completed task %d", p.ID)
		}
	}

	completed, err := repo.ListCompleted(ctx, 1)
	if err != nil {
		t.Fatalf("ListCompleted() error = %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("ListCompleted() returned %d tasks, want 2", len(completed))
	}
	if completed[0].ID != third.ID || completed[1].ID != first.ID {
		t.Errorf("ListCompleted() order = [%d %d], want [%d %d]",
			completed[0].ID, completed[1].ID, third.ID, first.ID)
	}
}

func TestRepository_ListEmpty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	pending, err := repo.ListPending(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected empty list, got %d tasks", len(pending))
	}
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	task := &domain.Task{Title: "draft", Important: true, UserID: 1}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := repo.Update(ctx, task.ID, 1, Fields{Title: "final", Description: "", Important: false})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "final" {
		t.Errorf("expected title %q, got %q", "final", updated.Title)
	}
	if updated.Important {
		t.Error("expected Important to be cleared")
	}
	if updated.UserID != 1 {
		t.Errorf("owner changed to %d", updated.UserID)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", task.CreatedAt, updated.CreatedAt)
	}

	if _, err := repo.Update(ctx, task.ID, 2, Fields{Title: "hijack"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() by other owner error = %v, want ErrNotFound", err)
	}
}

func TestRepository_CompleteTwice(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	task := createTask(t, repo, 1, "repeat")

	firstStamp := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	secondStamp := firstStamp.Add(30 * time.Minute)

	if _, err := repo.Complete(ctx, task.ID, 1, firstStamp); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	done, err := repo.Complete(ctx, task.ID, 1, secondStamp)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(secondStamp) {
		t.Errorf("CompletedAt = %v, want %v", done.CompletedAt, secondStamp)
	}

	completed, err := repo.ListCompleted(ctx, 1)
	if err != nil {
		t.Fatalf("ListCompleted() error = %v", err)
	}
	if len(completed) != 1 {
		t.Errorf("expected task once in completed list, got %d entries", len(completed))
	}
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	task := createTask(t, repo, 1, "obsolete")

	if err := repo.Delete(ctx, task.ID, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() by other owner error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, task.ID, 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.FindByIDAndOwner(ctx, task.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected task to be gone, got err = %v", err)
	}
	if err := repo.Delete(ctx, task.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no task matches both the id and the owner.
var ErrNotFound = errors.New("task not found")

// Repository persists tasks. Every lookup and mutation is scoped by owner.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new task.
func (r *Repository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByIDAndOwner retrieves a task owned by ownerID.
func (r *Repository) FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// ListPending returns the owner's tasks that have not been completed.
func (r *Repository) ListPending(ctx context.Context, ownerID uint) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed_at IS NULL", ownerID).
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tasks: %w", err)
	}
	return tasks, nil
}

// ListCompleted returns the owner's completed tasks, most recently completed first.
func (r *Repository) ListCompleted(ctx context.Context, ownerID uint) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed_at IS NOT NULL", ownerID).
		Order("completed_at DESC").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	return tasks, nil
}

// Update overwrites the editable fields of an owned task and returns the stored row.
// Owner and creation time are never touched.
func (r *Repository) Update(ctx context.Context, id, ownerID uint, fields Fields) (*domain.Task, error) {
	return r.updateColumns(ctx, id, ownerID, map[string]any{
		"title":       fields.Title,
		"description": fields.Description,
		"important":   fields.Important,
	})
}

// Complete stamps completed_at with now. Completing twice overwrites the stamp.
func (r *Repository) Complete(ctx context.Context, id, ownerID uint, now time.Time) (*domain.Task, error) {
	return r.updateColumns(ctx, id, ownerID, map[string]any{
		"completed_at": now,
	})
}

// Delete permanently removes an owned task.
func (r *Repository) Delete(ctx context.Context, id, ownerID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&domain.Task{})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) updateColumns(ctx context.Context, id, ownerID uint, columns map[string]any) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Task{}).
			Where("id = ? AND user_id = ?", id, ownerID).
			Updates(columns)
		if result.Error != nil {
			return fmt.Errorf("failed to update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&task).Error; err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

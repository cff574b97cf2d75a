package task

import "time"

// TaskStatus is derived from CompletedAt; it is not persisted.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// Task is a single to-do item owned by one user.
type Task struct {
	ID          uint       `gorm:"primaryKey"`
	Title       string     `gorm:"size:100;not null"`
	Description string     `gorm:"type:text"`
	Important   bool       `gorm:"not null;default:false"`
	UserID      uint       `gorm:"index;not null"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time
	CompletedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Status reports whether the task is pending or completed.
func (t *Task) Status() TaskStatus {
	if t.CompletedAt != nil {
		return StatusCompleted
	}
	return StatusPending
}

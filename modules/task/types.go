package task

import (
	"context"
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

// Fields are the user-editable task attributes produced by ValidateForm.
type Fields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Important   bool   `json:"important"`
}

// TaskRef addresses one task on behalf of its owner.
type TaskRef struct {
	TaskID  uint `json:"task_id"`
	OwnerID uint `json:"owner_id"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	OwnerID uint   `json:"owner_id"`
	Fields  Fields `json:"fields"`
}

// UpdateTaskRequest is the request for editing a task.
type UpdateTaskRequest struct {
	TaskRef
	Fields Fields `json:"fields"`
}

// ListTasksRequest is the request for listing an owner's tasks.
type ListTasksRequest struct {
	OwnerID uint `json:"owner_id"`
}

// TaskResponse is the response for a single task.
type TaskResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Important   bool       `json:"important"`
	Status      string     `json:"status"`
	OwnerID     uint       `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskResult is returned by owner-scoped lookups. Found is false both when the
// task does not exist and when it belongs to someone else.
type TaskResult struct {
	Task  *TaskResponse `json:"task,omitempty"`
	Found bool          `json:"found"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// TaskPort defines the task operations available to other modules.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, ref TaskRef) (*TaskResult, error)
	ListPending(ctx context.Context, ownerID uint) (*ListTasksResponse, error)
	ListCompleted(ctx context.Context, ownerID uint) (*ListTasksResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResult, error)
	CompleteTask(ctx context.Context, ref TaskRef) (*TaskResult, error)
	DeleteTask(ctx context.Context, ref TaskRef) (*DeleteTaskResponse, error)
}

func toResponse(t *domain.Task) *TaskResponse {
	return &TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Important:   t.Important,
		Status:      string(t.Status()),
		OwnerID:     t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

func toListResponse(tasks []*domain.Task) *ListTasksResponse {
	resp := &ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: len(tasks),
	}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, *toResponse(t))
	}
	return resp
}

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
)

// ErrInvalidFields is returned when a create or update carries fields that fail validation.
var ErrInvalidFields = errors.New("invalid task fields")

// Service implements the task use cases on top of the Repository.
// It satisfies TaskPort, so in-process callers and tests can use it directly.
type Service struct {
	repo   *Repository
	now    func() time.Time
	logger types.Logger
}

var _ TaskPort = (*Service)(nil)

// NewService creates a new task service.
func NewService(repo *Repository, logger types.Logger) *Service {
	return &Service{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// CreateTask stores a new pending task owned by req.OwnerID.
func (s *Service) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	if errs := req.Fields.Validate(); !errs.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFields, errs.Error())
	}

	t := &domain.Task{
		Title:       req.Fields.Title,
		Description: req.Fields.Description,
		Important:   req.Fields.Important,
		UserID:      req.OwnerID,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("Task created", "task_id", t.ID, "user_id", t.UserID)
	return toResponse(t), nil
}

// GetTask loads a task owned by ref.OwnerID.
func (s *Service) GetTask(ctx context.Context, ref TaskRef) (*TaskResult, error) {
	t, err := s.repo.FindByIDAndOwner(ctx, ref.TaskID, ref.OwnerID)
	return result(t, err)
}

// ListPending lists the owner's pending tasks.
func (s *Service) ListPending(ctx context.Context, ownerID uint) (*ListTasksResponse, error) {
	tasks, err := s.repo.ListPending(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toListResponse(tasks), nil
}

// ListCompleted lists the owner's completed tasks, newest completion first.
func (s *Service) ListCompleted(ctx context.Context, ownerID uint) (*ListTasksResponse, error) {
	tasks, err := s.repo.ListCompleted(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toListResponse(tasks), nil
}

// UpdateTask replaces the editable fields of an owned task.
func (s *Service) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResult, error) {
	if errs := req.Fields.Validate(); !errs.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFields, errs.Error())
	}

	t, err := s.repo.Update(ctx, req.TaskID, req.OwnerID, req.Fields)
	if err == nil {
		s.logger.Info("Task updated", "task_id", t.ID, "user_id", t.UserID)
	}
	return result(t, err)
}

// CompleteTask marks an owned task completed at the current time.
func (s *Service) CompleteTask(ctx context.Context, ref TaskRef) (*TaskResult, error) {
	t, err := s.repo.Complete(ctx, ref.TaskID, ref.OwnerID, s.now())
	if err == nil {
		s.logger.Info("Task completed", "task_id", t.ID, "user_id", t.UserID)
	}
	return result(t, err)
}

// DeleteTask permanently removes an owned task.
func (s *Service) DeleteTask(ctx context.Context, ref TaskRef) (*DeleteTaskResponse, error) {
	err := s.repo.Delete(ctx, ref.TaskID, ref.OwnerID)
	if errors.Is(err, ErrNotFound) {
		return &DeleteTaskResponse{Deleted: false}, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task deleted", "task_id", ref.TaskID, "user_id", ref.OwnerID)
	return &DeleteTaskResponse{Deleted: true}, nil
}

// result converts a repository lookup into a TaskResult, folding ErrNotFound into Found=false.
func result(t *domain.Task, err error) (*TaskResult, error) {
	if errors.Is(err, ErrNotFound) {
		return &TaskResult{Found: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &TaskResult{Task: toResponse(t), Found: true}, nil
}

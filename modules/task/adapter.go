package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort by calling the task module's services
// through its ServiceContainer.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a TaskPort backed by the task module's ServiceContainer,
// as received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// CreateTask creates a task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateTask,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceCreateTask, err)
	}
	return &resp, nil
}

// GetTask loads an owned task via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, ref TaskRef) (*TaskResult, error) {
	var resp TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetTask,
		json.Marshal,
		json.Unmarshal,
		&ref,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceGetTask, err)
	}
	return &resp, nil
}

// ListPending lists pending tasks via the list-pending-tasks service.
func (a *taskAdapter) ListPending(ctx context.Context, ownerID uint) (*ListTasksResponse, error) {
	req := ListTasksRequest{OwnerID: ownerID}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListPending,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceListPending, err)
	}
	return &resp, nil
}

// ListCompleted lists completed tasks via the list-completed-tasks service.
func (a *taskAdapter) ListCompleted(ctx context.Context, ownerID uint) (*ListTasksResponse, error) {
	req := ListTasksRequest{OwnerID: ownerID}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListCompleted,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceListCompleted, err)
	}
	return &resp, nil
}

// UpdateTask edits an owned task via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResult, error) {
	var resp TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceUpdateTask,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceUpdateTask, err)
	}
	return &resp, nil
}

// CompleteTask completes an owned task via the complete-task service.
func (a *taskAdapter) CompleteTask(ctx context.Context, ref TaskRef) (*TaskResult, error) {
	var resp TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCompleteTask,
		json.Marshal,
		json.Unmarshal,
		&ref,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceCompleteTask, err)
	}
	return &resp, nil
}

// DeleteTask removes an owned task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, ref TaskRef) (*DeleteTaskResponse, error) {
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceDeleteTask,
		json.Marshal,
		json.Unmarshal,
		&ref,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceDeleteTask, err)
	}
	return &resp, nil
}

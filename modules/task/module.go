package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Service names exposed by the task module.
const (
	ServiceCreateTask    = "create-task"
	ServiceGetTask       = "get-task"
	ServiceListPending   = "list-pending-tasks"
	ServiceListCompleted = "list-completed-tasks"
	ServiceUpdateTask    = "update-task"
	ServiceCompleteTask  = "complete-task"
	ServiceDeleteTask    = "delete-task"
)

// TaskModule owns task persistence and exposes it as request-reply services.
type TaskModule struct {
	database *database.PluginModule
	service  *Service
	logger   types.Logger
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.UsePluginModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(logger types.Logger) *TaskModule {
	return &TaskModule{
		logger: logger.WithModule("task"),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetPlugin receives the database plugin from the framework.
func (m *TaskModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "db" {
		return
	}
	db, ok := plugin.(*database.PluginModule)
	if !ok {
		m.logger.Error("Invalid plugin type for db",
			"alias", alias,
			"expected", "*database.PluginModule")
		return
	}
	m.database = db
}

// RegisterServices registers the request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateTask, json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetTask, json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListPending, json.Unmarshal, json.Marshal, m.listPending,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListPending, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListCompleted, json.Unmarshal, json.Marshal, m.listCompleted,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListCompleted, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateTask, json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCompleteTask, json.Unmarshal, json.Marshal, m.completeTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCompleteTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteTask, json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteTask, err)
	}

	m.logger.Info("Registered services",
		"services", []string{
			ServiceCreateTask, ServiceGetTask, ServiceListPending, ServiceListCompleted,
			ServiceUpdateTask, ServiceCompleteTask, ServiceDeleteTask,
		})
	return nil
}

// Start migrates the tasks table and builds the service.
func (m *TaskModule) Start(_ context.Context) error {
	if m.database == nil {
		return fmt.Errorf("db plugin not set")
	}
	db, err := m.database.DB()
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("failed to migrate tasks: %w", err)
	}

	m.service = NewService(NewRepository(db), m.logger)
	m.logger.Info("Module started")
	return nil
}

// Stop shuts down the module. The connection belongs to the database plugin.
func (m *TaskModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

// Service returns the task service for in-process callers.
func (m *TaskModule) Service() *Service {
	return m.service
}

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	resp, err := m.service.CreateTask(ctx, &req)
	if err != nil {
		return TaskResponse{}, err
	}
	return *resp, nil
}

func (m *TaskModule) getTask(ctx context.Context, req TaskRef, _ *mono.Msg) (TaskResult, error) {
	resp, err := m.service.GetTask(ctx, req)
	if err != nil {
		return TaskResult{}, err
	}
	return *resp, nil
}

func (m *TaskModule) listPending(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	resp, err := m.service.ListPending(ctx, req.OwnerID)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return *resp, nil
}

func (m *TaskModule) listCompleted(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	resp, err := m.service.ListCompleted(ctx, req.OwnerID)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return *resp, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	resp, err := m.service.UpdateTask(ctx, &req)
	if err != nil {
		return TaskResult{}, err
	}
	return *resp, nil
}

func (m *TaskModule) completeTask(ctx context.Context, req TaskRef, _ *mono.Msg) (TaskResult, error) {
	resp, err := m.service.CompleteTask(ctx, req)
	if err != nil {
		return TaskResult{}, err
	}
	return *resp, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req TaskRef, _ *mono.Msg) (DeleteTaskResponse, error) {
	resp, err := m.service.DeleteTask(ctx, req)
	if err != nil {
		return DeleteTaskResponse{}, err
	}
	return *resp, nil
}

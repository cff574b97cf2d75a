package web

import (
	"context"
	"strings"

	"github.com/example/task-tracker/modules/account"
	"github.com/example/task-tracker/modules/task"
	"github.com/example/task-tracker/pkg/validator"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// View names, one per template in templates/.
const (
	viewHome     = "home"
	viewSignup   = "signup"
	viewSignin   = "signin"
	viewTasks    = "tasks"
	viewCreate   = "task_create"
	viewDetail   = "task_detail"
	viewNotFound = "not_found"
	viewError    = "error"
)

// Sign-in form fields.
const (
	fieldLogin    = "login"
	fieldPassword = "password"
	fieldNext     = "next"
)

const (
	msgUnexpected  = "Something went wrong while saving. Please try again."
	msgSigninError = "Please enter a correct username or email and password."
)

var signinRules = []validator.Rule[account.AuthenticateRequest]{
	{
		Name:  "login-required",
		Field: fieldLogin,
		Check: func(r account.AuthenticateRequest) *validator.FieldError {
			if strings.TrimSpace(r.Login) == "" {
				return validator.Fail(validator.Required, "Username or email is required.")
			}
			return nil
		},
	},
	{
		Name:  "password-required",
		Field: fieldPassword,
		Check: func(r account.AuthenticateRequest) *validator.FieldError {
			if r.Password == "" {
				return validator.Fail(validator.Required, "Password is required.")
			}
			return nil
		},
	},
}

// Handlers implements one Action per page. Each compares the identity, runs
// a validator and calls a port; none of them touch HTTP or the session.
type Handlers struct {
	accounts account.AuthPort
	tasks    task.TaskPort
	logger   types.Logger
}

// NewHandlers creates the page handlers.
func NewHandlers(accounts account.AuthPort, tasks task.TaskPort, logger types.Logger) *Handlers {
	return &Handlers{
		accounts: accounts,
		tasks:    tasks,
		logger:   logger,
	}
}

// Home renders the landing page.
func (h *Handlers) Home(_ context.Context, _ *Identity, _ Request) Outcome {
	return Render(viewHome, nil)
}

// Signup shows the registration form and creates accounts.
func (h *Handlers) Signup(ctx context.Context, _ *Identity, req Request) Outcome {
	if !req.IsPost() {
		return Render(viewSignup, nil)
	}

	form := fiber.Map{"Form": map[string]string{
		account.FieldUsername: req.Form[account.FieldUsername],
		account.FieldEmail:    req.Form[account.FieldEmail],
	}}

	resp, err := h.accounts.Register(ctx, &account.RegisterRequest{
		Username:             req.Form[account.FieldUsername],
		Email:                req.Form[account.FieldEmail],
		Password:             req.Form[account.FieldPassword],
		PasswordConfirmation: req.Form[account.FieldPasswordConfirmation],
	})
	if err != nil {
		h.logger.Error("Registration failed", "error", err)
		return Render(viewSignup, form).WithFlash(FlashWarning, msgUnexpected)
	}
	if !resp.Errors.Valid() {
		form["Errors"] = resp.Errors
		return Render(viewSignup, form)
	}

	return Redirect(PathSignin).WithFlash(FlashSuccess, "Your account has been created. You can sign in now.")
}

// Signin shows the sign-in form and establishes the session identity.
func (h *Handlers) Signin(ctx context.Context, id *Identity, req Request) Outcome {
	if id != nil {
		return Redirect(PathList)
	}
	if !req.IsPost() {
		return Render(viewSignin, fiber.Map{"Next": req.Next})
	}

	creds := account.AuthenticateRequest{
		Login:    req.Form[fieldLogin],
		Password: req.Form[fieldPassword],
	}
	next := req.Form[fieldNext]
	form := fiber.Map{
		"Form": map[string]string{fieldLogin: creds.Login},
		"Next": next,
	}

	if errs := validator.Validate(creds, signinRules); !errs.Valid() {
		form["Errors"] = errs
		return Render(viewSignin, form)
	}

	resp, err := h.accounts.Authenticate(ctx, &creds)
	if err != nil {
		h.logger.Error("Authentication failed", "error", err)
		return Render(viewSignin, form).WithFlash(FlashWarning, msgUnexpected)
	}
	if !resp.Authenticated() {
		h.logger.Info("Sign in refused", "failure", string(resp.Failure))
		form["Errors"] = validator.Errors{
			validator.NonField: {Code: validator.Code(account.FailureInvalidCredentials), Message: msgSigninError},
		}
		return Render(viewSignin, form)
	}

	out := Redirect(safeNext(next, PathList))
	out.SignIn = &Identity{UserID: resp.User.ID, Username: resp.User.Username}
	return out
}

// Logout clears the session identity.
func (h *Handlers) Logout(_ context.Context, _ *Identity, _ Request) Outcome {
	out := Redirect(PathHome)
	out.SignOut = true
	return out
}

// ListPending renders the identity's pending tasks.
func (h *Handlers) ListPending(ctx context.Context, id *Identity, _ Request) Outcome {
	resp, err := h.tasks.ListPending(ctx, id.UserID)
	if err != nil {
		return ServerError(err)
	}
	return Render(viewTasks, fiber.Map{
		"Heading":   "Pending tasks",
		"Tasks":     resp.Tasks,
		"Completed": false,
	})
}

// ListCompleted renders the identity's completed tasks, newest completion first.
func (h *Handlers) ListCompleted(ctx context.Context, id *Identity, _ Request) Outcome {
	resp, err := h.tasks.ListCompleted(ctx, id.UserID)
	if err != nil {
		return ServerError(err)
	}
	return Render(viewTasks, fiber.Map{
		"Heading":   "Completed tasks",
		"Tasks":     resp.Tasks,
		"Completed": true,
	})
}

// CreateTask shows the task form and creates a task owned by the identity.
func (h *Handlers) CreateTask(ctx context.Context, id *Identity, req Request) Outcome {
	if !req.IsPost() {
		return Render(viewCreate, nil)
	}

	fields, errs := task.ValidateForm(req.Form)
	if !errs.Valid() {
		return Render(viewCreate, fiber.Map{"Form": req.Form, "Errors": errs})
	}

	created, err := h.tasks.CreateTask(ctx, &task.CreateTaskRequest{
		OwnerID: id.UserID,
		Fields:  fields,
	})
	if err != nil {
		h.logger.Error("Failed to create task", "user_id", id.UserID, "error", err)
		return Render(viewCreate, fiber.Map{"Form": req.Form}).WithFlash(FlashWarning, msgUnexpected)
	}

	h.logger.Debug("Task created", "task_id", created.ID, "user_id", id.UserID)
	return Redirect(PathList).WithFlash(FlashSuccess, "Task created.")
}

// TaskDetail shows an owned task pre-filled in the edit form and saves edits.
func (h *Handlers) TaskDetail(ctx context.Context, id *Identity, req Request) Outcome {
	if req.TaskID == 0 {
		return NotFound(req.TaskID)
	}
	ref := task.TaskRef{TaskID: req.TaskID, OwnerID: id.UserID}

	found, err := h.tasks.GetTask(ctx, ref)
	if err != nil {
		return ServerError(err)
	}
	if !found.Found {
		return NotFound(req.TaskID)
	}

	if !req.IsPost() {
		return Render(viewDetail, fiber.Map{"Task": found.Task, "Form": formValues(found.Task)})
	}

	fields, errs := task.ValidateForm(req.Form)
	if !errs.Valid() {
		return Render(viewDetail, fiber.Map{"Task": found.Task, "Form": req.Form, "Errors": errs})
	}

	updated, err := h.tasks.UpdateTask(ctx, &task.UpdateTaskRequest{TaskRef: ref, Fields: fields})
	if err != nil {
		h.logger.Error("Failed to update task", "task_id", req.TaskID, "user_id", id.UserID, "error", err)
		return Render(viewDetail, fiber.Map{"Task": found.Task, "Form": req.Form}).
			WithFlash(FlashWarning, msgUnexpected)
	}
	if !updated.Found {
		return NotFound(req.TaskID)
	}

	return Redirect(PathList).WithFlash(FlashSuccess, "Task updated.")
}

// CompleteTask marks an owned task completed.
func (h *Handlers) CompleteTask(ctx context.Context, id *Identity, req Request) Outcome {
	if !req.IsPost() {
		return MethodNotAllowed(fiber.MethodPost)
	}

	result, err := h.tasks.CompleteTask(ctx, task.TaskRef{TaskID: req.TaskID, OwnerID: id.UserID})
	if err != nil {
		h.logger.Error("Failed to complete task", "task_id", req.TaskID, "user_id", id.UserID, "error", err)
		return Redirect(PathList).WithFlash(FlashWarning, msgUnexpected)
	}
	if !result.Found {
		return NotFound(req.TaskID)
	}

	return Redirect(PathList).WithFlash(FlashSuccess, "Task completed.")
}

// DeleteTask permanently removes an owned task.
func (h *Handlers) DeleteTask(ctx context.Context, id *Identity, req Request) Outcome {
	if !req.IsPost() {
		return MethodNotAllowed(fiber.MethodPost)
	}

	result, err := h.tasks.DeleteTask(ctx, task.TaskRef{TaskID: req.TaskID, OwnerID: id.UserID})
	if err != nil {
		h.logger.Error("Failed to delete task", "task_id", req.TaskID, "user_id", id.UserID, "error", err)
		return Redirect(PathList).WithFlash(FlashWarning, msgUnexpected)
	}
	if !result.Deleted {
		return NotFound(req.TaskID)
	}

	return Redirect(PathList).WithFlash(FlashSuccess, "Task deleted.")
}

func formValues(t *task.TaskResponse) map[string]string {
	values := map[string]string{
		task.FieldTitle:       t.Title,
		task.FieldDescription: t.Description,
	}
	if t.Important {
		values[task.FieldImportant] = "on"
	}
	return values
}

package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Paths served by the web module.
const (
	PathHome      = "/"
	PathSignup    = "/signup/"
	PathSignin    = "/signin/"
	PathList      = "/list/"
	PathCompleted = "/completed/"
	PathCreate    = "/create/"
	PathLogout    = "/logout/"
	PathHealth    = "/healthz"
)

// TaskPath returns the detail/edit path of a task.
func TaskPath(id uint) string {
	return fmt.Sprintf("/%d/", id)
}

// CompletePath returns the path that marks a task completed.
func CompletePath(id uint) string {
	return fmt.Sprintf("/%d/complete/", id)
}

// RemovePath returns the path that deletes a task.
func RemovePath(id uint) string {
	return fmt.Sprintf("/%d/remove/", id)
}

// Identity is the signed-in user carried through one request.
// A nil *Identity means the request is anonymous.
type Identity struct {
	UserID   uint
	Username string
}

// Request is the part of an HTTP request an Action may look at.
type Request struct {
	Method string
	Path   string
	Next   string
	Form   map[string]string
	TaskID uint
}

// IsPost reports whether the request submits a form.
func (r Request) IsPost() bool {
	return r.Method == fiber.MethodPost
}

// Kind selects how an Outcome is written to the client.
type Kind int

const (
	KindRender Kind = iota
	KindRedirect
	KindNotFound
	KindMethodNotAllowed
	KindServerError
)

// Flash levels.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

// Outcome is the result of an Action. Only the fiber adapter turns it into
// an HTTP response and touches the session.
type Outcome struct {
	Kind     Kind
	Status   int
	View     string
	Data     fiber.Map
	Location string
	Flash    *Flash
	// SignIn binds the session to this identity before the response is written.
	SignIn *Identity
	// SignOut clears the session identity.
	SignOut bool
	Err     error
}

// Action handles one user-facing operation.
type Action func(ctx context.Context, id *Identity, req Request) Outcome

// Render shows a page with status 200.
func Render(view string, data fiber.Map) Outcome {
	return Outcome{Kind: KindRender, Status: fiber.StatusOK, View: view, Data: data}
}

// Redirect sends the client to location with 302 Found.
func Redirect(location string) Outcome {
	return Outcome{Kind: KindRedirect, Status: fiber.StatusFound, Location: location}
}

// NotFound shows the not-found page for the requested task id.
func NotFound(taskID uint) Outcome {
	return Outcome{
		Kind:   KindNotFound,
		Status: fiber.StatusNotFound,
		View:   viewNotFound,
		Data:   fiber.Map{"TaskID": taskID},
	}
}

// MethodNotAllowed rejects a request made with the wrong method.
func MethodNotAllowed(allowed ...string) Outcome {
	return Outcome{
		Kind:   KindMethodNotAllowed,
		Status: fiber.StatusMethodNotAllowed,
		View:   viewError,
		Data:   fiber.Map{"Allow": strings.Join(allowed, ", ")},
	}
}

// ServerError hands err to the application error handler.
func ServerError(err error) Outcome {
	return Outcome{Kind: KindServerError, Status: fiber.StatusInternalServerError, Err: err}
}

// WithFlash attaches a one-time message to the outcome.
func (o Outcome) WithFlash(level, message string) Outcome {
	o.Flash = &Flash{Level: level, Message: message}
	return o
}

// RequireIdentity redirects anonymous requests to the sign-in page without
// running next. GET requests keep their path in the next parameter.
func RequireIdentity(next Action) Action {
	return func(ctx context.Context, id *Identity, req Request) Outcome {
		if id == nil {
			location := PathSignin
			if req.Method == fiber.MethodGet && req.Path != "" {
				location += "?next=" + url.QueryEscape(req.Path)
			}
			return Redirect(location)
		}
		return next(ctx, id, req)
	}
}

// safeNext returns next when it is a local path, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/example/task-tracker/modules/account"
	"github.com/example/task-tracker/pkg/env"
	"github.com/example/task-tracker/pkg/validator"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Session keys. Only the account id and username are stored, never credentials.
const (
	sessionUserID       = "user_id"
	sessionUsername     = "username"
	sessionFlashLevel   = "flash_level"
	sessionFlashMessage = "flash_message"
)

const csrfContextKey = "csrf"

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	SessionTTL   time.Duration
	RedisAddr    string
	CookieSecure bool
	CSRF         bool
}

// ConfigFromEnv loads Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		Addr:         env.String("HTTP_ADDR", ":3000"),
		SessionTTL:   env.Duration("SESSION_TTL", 24*time.Hour),
		RedisAddr:    env.String("SESSION_REDIS_ADDR", ""),
		CookieSecure: env.Bool("COOKIE_SECURE", false),
		CSRF:         env.Bool("CSRF_ENABLED", true),
	}
}

// server adapts Actions to fiber handlers. It is the only place that reads
// or writes the session.
type server struct {
	handlers   *Handlers
	accounts   account.AuthPort
	sessions   *session.Store
	identities singleflight.Group
	ping       func(ctx context.Context) error
	logger     types.Logger
}

// newSessionStore keeps sessions in memory, or in Redis when RedisAddr is set.
func newSessionStore(cfg Config) (*session.Store, fiber.Storage) {
	sc := session.Config{
		Expiration:     cfg.SessionTTL,
		KeyLookup:      "cookie:session_id",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	}

	var storage fiber.Storage
	if cfg.RedisAddr != "" {
		host, port := parseRedisAddr(cfg.RedisAddr)
		storage = redis.New(redis.Config{
			Host:     host,
			Port:     port,
			PoolSize: 10,
		})
		sc.Storage = storage
	}
	return session.New(sc), storage
}

// newApp builds the fiber application with middleware, views and routes.
func newApp(cfg Config, s *server) (*fiber.App, error) {
	pages := newViews()
	if err := pages.Load(); err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               "task-tracker",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		Views:                 pages,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	if cfg.CSRF {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:csrf_token",
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   cfg.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     time.Hour,
			ContextKey:     csrfContextKey,
			KeyGenerator:   uuid.NewString,
		}))
	}

	s.routes(app)
	return app, nil
}

func (s *server) routes(app *fiber.App) {
	h := s.handlers

	app.Get(PathHealth, s.health)

	app.Get(PathHome, s.serve(h.Home))
	s.getPost(app, PathSignup, h.Signup)
	s.getPost(app, PathSignin, h.Signin)
	app.All(PathLogout, s.serve(RequireIdentity(h.Logout)))

	app.Get(PathList, s.serve(RequireIdentity(h.ListPending)))
	app.Get(PathCompleted, s.serve(RequireIdentity(h.ListCompleted)))
	s.getPost(app, PathCreate, RequireIdentity(h.CreateTask))

	// Static paths above must be registered before the id routes.
	app.All("/:id<int>/complete/", s.serve(RequireIdentity(h.CompleteTask)))
	app.All("/:id<int>/remove/", s.serve(RequireIdentity(h.DeleteTask)))
	s.getPost(app, "/:id<int>/", RequireIdentity(h.TaskDetail))
}

func (s *server) getPost(app *fiber.App, path string, action Action) {
	handler := s.serve(action)
	app.Get(path, handler)
	app.Post(path, handler)
}

// serve runs action with the request's identity and writes its Outcome.
func (s *server) serve(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.sessions.Get(c)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		ctx := c.UserContext()
		identity, err := s.identity(ctx, sess)
		if err != nil {
			return err
		}

		out := action(ctx, identity, newRequest(c))
		return s.respond(c, sess, identity, out)
	}
}

func newRequest(c *fiber.Ctx) Request {
	req := Request{
		Method: c.Method(),
		Path:   c.Path(),
		Next:   c.Query(fieldNext),
		Form:   map[string]string{},
	}
	if id, err := c.ParamsInt("id"); err == nil && id > 0 {
		req.TaskID = uint(id)
	}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		req.Form[string(key)] = string(value)
	})
	return req
}

// identity loads the account bound to the session. Sessions of accounts that
// were removed or deactivated are treated as anonymous and cleared.
func (s *server) identity(ctx context.Context, sess *session.Session) (*Identity, error) {
	userID, ok := sess.Get(sessionUserID).(uint)
	if !ok || userID == 0 {
		return nil, nil
	}

	v, err, _ := s.identities.Do(strconv.FormatUint(uint64(userID), 10), func() (any, error) {
		return s.accounts.GetUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	resp, ok := v.(*account.GetUserResponse)
	if !ok || !resp.Found || !resp.User.Active {
		sess.Delete(sessionUserID)
		sess.Delete(sessionUsername)
		return nil, nil
	}
	return &Identity{UserID: resp.User.ID, Username: resp.User.Username}, nil
}

// respond applies the Outcome's session changes and writes the response.
func (s *server) respond(c *fiber.Ctx, sess *session.Session, identity *Identity, out Outcome) error {
	switch {
	case out.SignOut:
		if err := sess.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		return c.Redirect(out.Location, fiber.StatusFound)
	case out.SignIn != nil:
		if err := sess.Regenerate(); err != nil {
			return fmt.Errorf("failed to regenerate session: %w", err)
		}
		sess.Set(sessionUserID, out.SignIn.UserID)
		sess.Set(sessionUsername, out.SignIn.Username)
		identity = out.SignIn
	}

	switch out.Kind {
	case KindRedirect:
		if out.Flash != nil {
			sess.Set(sessionFlashLevel, out.Flash.Level)
			sess.Set(sessionFlashMessage, out.Flash.Message)
		}
		if err := saveSession(sess); err != nil {
			return err
		}
		return c.Redirect(out.Location, out.Status)

	case KindRender, KindNotFound:
		flash := out.Flash
		if stored := popFlash(sess); flash == nil {
			flash = stored
		}
		if err := saveSession(sess); err != nil {
			return err
		}
		return s.render(c, out.Status, out.View, out.Data, identity, flash)

	case KindMethodNotAllowed:
		if err := saveSession(sess); err != nil {
			return err
		}
		c.Set(fiber.HeaderAllow, fmt.Sprint(out.Data["Allow"]))
		data := fiber.Map{"Allow": out.Data["Allow"]}
		return s.render(c, out.Status, viewError, withStatus(data, out.Status), identity, nil)

	default:
		err := out.Err
		if err == nil {
			err = fiber.ErrInternalServerError
		}
		return err
	}
}

func (s *server) render(c *fiber.Ctx, status int, view string, data fiber.Map, identity *Identity, flash *Flash) error {
	token, _ := c.Locals(csrfContextKey).(string)
	bind := fiber.Map{
		"Identity": identity,
		"Flash":    flash,
		"CSRF":     token,
		"Form":     map[string]string{},
		"Errors":   validator.Errors{},
	}
	for k, v := range data {
		bind[k] = v
	}
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).Render(view, bind)
}

// errorHandler renders unhandled errors, unknown routes and middleware
// rejections as HTML pages.
func (s *server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err)
	}

	view := viewError
	data := withStatus(fiber.Map{}, code)
	if code == fiber.StatusNotFound {
		view = viewNotFound
	}

	token, _ := c.Locals(csrfContextKey).(string)
	data["CSRF"] = token
	data["Form"] = map[string]string{}
	data["Errors"] = validator.Errors{}
	if renderErr := c.Status(code).Render(view, data); renderErr != nil {
		s.logger.Error("Failed to render error page", "error", renderErr)
		return c.Status(code).SendString(utils.StatusMessage(code))
	}
	return nil
}

func (s *server) health(c *fiber.Ctx) error {
	if s.ping != nil {
		if err := s.ping(c.UserContext()); err != nil {
			s.logger.Warn("Health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).SendString("unavailable")
		}
	}
	return c.SendString("ok")
}

func withStatus(data fiber.Map, status int) fiber.Map {
	data["Status"] = status
	data["Message"] = utils.StatusMessage(status)
	return data
}

func popFlash(sess *session.Session) *Flash {
	message, _ := sess.Get(sessionFlashMessage).(string)
	if message == "" {
		return nil
	}
	level, _ := sess.Get(sessionFlashLevel).(string)
	sess.Delete(sessionFlashLevel)
	sess.Delete(sessionFlashMessage)
	return &Flash{Level: level, Message: message}
}

// saveSession persists the session unless it is a fresh, empty one.
func saveSession(sess *session.Session) error {
	if sess.Fresh() && len(sess.Keys()) == 0 {
		return nil
	}
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// parseRedisAddr parses "host:port" into host and port.
// Returns defaults (127.0.0.1:6379) for invalid or missing values.
func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}

	if host == "" {
		host = defaultHost
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}

	return host, port
}

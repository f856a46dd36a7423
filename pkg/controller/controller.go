package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/harrisonrobin/taskflow/pkg/api"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/session"
	"github.com/rs/zerolog/log"
)

// API is the subset of the remote client the controller drives.
type API interface {
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ListTasks(ctx context.Context, token string) ([]model.Task, error)
	CreateTask(ctx context.Context, token, title, description, comment string) (string, error)
	UpdateTask(ctx context.Context, token string, task model.Task) error
	DeleteTask(ctx context.Context, token, id string) error
	ChangePassword(ctx context.Context, token, newPassword string) error
}

// Controller owns the in-memory task list and keeps it consistent with the
// remote service. Operations are expected to be issued one at a time; two
// concurrent writes to the same id resolve as last response wins.
type Controller struct {
	api      API
	session  *session.Store
	onError  ErrorFunc
	onChange ChangeFunc

	mu      sync.RWMutex
	tasks   []model.Task
	loading int
}

// New creates a controller. A nil store gets a fresh one.
func New(client API, store *session.Store, opts ...Option) *Controller {
	if store == nil {
		store = session.NewStore()
	}
	c := &Controller{
		api:      client,
		session:  store,
		onError:  func(string) {},
		onChange: func(State) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tasks returns a copy of the current list.
func (c *Controller) Tasks() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTasks(c.tasks)
}

// Task returns the task with the given id from the loaded list.
func (c *Controller) Task(id string) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}

// Loading reports whether an operation is in flight.
func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading > 0
}

// Session returns the current session, if any.
func (c *Controller) Session() (session.Session, bool) {
	return c.session.Current()
}

// State returns a snapshot of tasks, loading flag and login status.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	_, loggedIn := c.session.Current()
	return State{Tasks: cloneTasks(c.tasks), Loading: c.loading > 0, LoggedIn: loggedIn}
}

func (c *Controller) publish() {
	c.onChange(c.State())
}

// begin marks an operation in flight; the returned func must run on every exit path.
func (c *Controller) begin() func() {
	c.mu.Lock()
	c.loading++
	c.mu.Unlock()
	c.publish()
	return func() {
		c.mu.Lock()
		c.loading--
		c.mu.Unlock()
		c.publish()
	}
}

func (c *Controller) report(op string, err error) {
	log.Warn().Err(err).Str("op", op).Msg("task operation failed")
	c.onError(api.Message(err))
}

// Login authenticates and, on success, stores the session and loads the list.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	done := c.begin()
	defer done()

	res, err := c.api.Login(ctx, username, password)
	if err != nil {
		c.report("login", err)
		return err
	}
	c.session.Set(session.Session{Token: res.Token, User: res.User})
	log.Info().Str("user", res.User.Name).Msg("logged in")
	return c.Refresh(ctx)
}

// Refresh replaces the whole list with the server's. Local-only fields such as
// photos do not survive. Without a session it does nothing.
func (c *Controller) Refresh(ctx context.Context) error {
	token := c.session.Token()
	if token == "" {
		return nil
	}
	done := c.begin()
	defer done()

	tasks, err := c.api.ListTasks(ctx, token)
	if err != nil {
		c.report("refresh", err)
		return err
	}
	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
	return nil
}

// Create posts a new task and reloads the list to pick up the server-assigned id.
func (c *Controller) Create(ctx context.Context, title, description, comment string) error {
	token := c.session.Token()
	if token == "" {
		return nil
	}
	if strings.TrimSpace(title) == "" {
		err := fmt.Errorf("%w: title is required", api.ErrValidation)
		c.report("create", err)
		return err
	}
	done := c.begin()
	defer done()

	id, err := c.api.CreateTask(ctx, token, title, description, comment)
	if err != nil {
		c.report("create", err)
		return err
	}
	log.Debug().Str("id", id).Msg("task created")
	return c.Refresh(ctx)
}

// Update pushes the full task to the server and reloads the list.
func (c *Controller) Update(ctx context.Context, task model.Task) error {
	token := c.session.Token()
	if token == "" {
		return nil
	}
	if strings.TrimSpace(task.Title) == "" {
		err := fmt.Errorf("%w: title is required", api.ErrValidation)
		c.report("update", err)
		return err
	}
	done := c.begin()
	defer done()

	if err := c.api.UpdateTask(ctx, token, task); err != nil {
		c.report("update", err)
		return err
	}
	return c.Refresh(ctx)
}

// Delete removes the task remotely. On success the id is filtered out of the
// local list without a reload; on failure the list is reloaded from the server.
func (c *Controller) Delete(ctx context.Context, id string) error {
	token := c.session.Token()
	if token == "" {
		return nil
	}
	done := c.begin()
	defer done()

	if err := c.api.DeleteTask(ctx, token, id); err != nil {
		c.report("delete", err)
		if rerr := c.Refresh(ctx); rerr != nil {
			log.Warn().Err(rerr).Str("id", id).Msg("resync after failed delete did not complete")
		}
		return err
	}

	c.mu.Lock()
	kept := c.tasks[:0:0]
	for _, t := range c.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	c.tasks = kept
	c.mu.Unlock()
	return nil
}

// ChangePassword forwards to the server; the session and token are unchanged.
func (c *Controller) ChangePassword(ctx context.Context, newPassword string) error {
	token := c.session.Token()
	if token == "" {
		return nil
	}
	if newPassword == "" {
		err := fmt.Errorf("%w: password must not be empty", api.ErrValidation)
		c.report("change password", err)
		return err
	}
	done := c.begin()
	defer done()

	if err := c.api.ChangePassword(ctx, token, newPassword); err != nil {
		c.report("change password", err)
		return err
	}
	return nil
}

// Logout tells the server (best effort) and then always clears local state.
func (c *Controller) Logout(ctx context.Context) {
	done := c.begin()
	defer done()

	if token := c.session.Token(); token != "" {
		if err := c.api.Logout(ctx, token); err != nil {
			log.Warn().Err(err).Msg("remote logout failed")
		}
	}
	c.session.Clear()
	c.mu.Lock()
	c.tasks = nil
	c.mu.Unlock()
}

// ApplyLocal replaces the loaded task with the same id, without any remote call.
// It is how client-only edits such as photo attachments reach the list.
func (c *Controller) ApplyLocal(task model.Task) bool {
	c.mu.Lock()
	found := false
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = task.Clone()
			found = true
			break
		}
	}
	c.mu.Unlock()
	if found {
		c.publish()
	}
	return found
}

func cloneTasks(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"golang.org/x/oauth2"
)

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token string
	User  model.UserProfile
}

// Client is a stateless wrapper around the task service's REST API.
// Every call is a single request/response; nothing is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service rooted at baseURL.
// A nil httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL '%s': %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL '%s': scheme and host are required", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(u.String(), "/"), httpClient: httpClient}, nil
}

// authorized returns an HTTP client that sends token as a bearer credential.
// The token is never refreshed; an expired token simply fails the next call.
func (c *Client) authorized(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer res.Body.Close()

	if err := classify(res); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s %s response: %w", ErrNetwork, method, path, err)
	}
	return nil
}

func (c *Client) doAuthorized(ctx context.Context, token, method, path string, in, out interface{}) error {
	if token == "" {
		return fmt.Errorf("%w: no session token", ErrAuth)
	}
	return c.do(ctx, c.authorized(ctx, token), method, path, in, out)
}

// Login exchanges credentials for a token and the user's profile.
// Any non-2xx response is reported as ErrAuth.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res loginResponse
	err := c.do(ctx, c.httpClient, http.MethodPost, "/users/login", loginRequest{Username: username, Password: password}, &res)
	if err != nil {
		if statusCode(err) != 0 && !errors.Is(err, ErrAuth) {
			return LoginResult{}, fmt.Errorf("%w: %w", ErrAuth, err)
		}
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login response carried no token", ErrNetwork)
	}
	return LoginResult{
		Token: res.Token,
		User:  model.UserProfile{Name: res.User.Name, Email: res.User.Email, Role: res.User.Role},
	}, nil
}

// Logout invalidates token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doAuthorized(ctx, token, http.MethodPost, "/users/logout", struct{}{}, nil)
}

// ChangePassword sets a new password for the token's user.
func (c *Client) ChangePassword(ctx context.Context, token, newPassword string) error {
	return c.doAuthorized(ctx, token, http.MethodPut, "/users/change-password", changePasswordRequest{NewPassword: newPassword}, nil)
}

// ListTasks returns the user's tasks in server order.
func (c *Client) ListTasks(ctx context.Context, token string) ([]model.Task, error) {
	var wire []wireTask
	if err := c.doAuthorized(ctx, token, http.MethodGet, "/tasks/my-tasks", nil, &wire); err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, w.toModel())
	}
	return tasks, nil
}

// CreateTask creates a PENDING task and returns the server-assigned id.
func (c *Client) CreateTask(ctx context.Context, token, title, description, comment string) (string, error) {
	body := taskBody{
		Title:       title,
		Description: description,
		Status:      model.PENDING.Wire(),
		Comentario:  comment,
	}
	var res struct {
		ID wireID `json:"id"`
	}
	if err := c.doAuthorized(ctx, token, http.MethodPost, "/tasks/", body, &res); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", fmt.Errorf("%w: create response carried no id", ErrNetwork)
	}
	return string(res.ID), nil
}

// UpdateTask replaces title, description, status and comment of task.ID.
func (c *Client) UpdateTask(ctx context.Context, token string, task model.Task) error {
	if task.ID == "" {
		return fmt.Errorf("%w: task has no id", ErrValidation)
	}
	status := task.Status
	if status == "" {
		status = model.PENDING
	}
	body := taskBody{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      status.Wire(),
		Comentario:  task.Comment,
	}
	return c.doAuthorized(ctx, token, http.MethodPut, "/tasks/"+url.PathEscape(task.ID), body, nil)
}

// DeleteTask removes the task with the given id.
func (c *Client) DeleteTask(ctx context.Context, token, id string) error {
	if id == "" {
		return fmt.Errorf("%w: task has no id", ErrValidation)
	}
	return c.doAuthorized(ctx, token, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

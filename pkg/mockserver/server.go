// Package mockserver is an in-memory implementation of the task service's REST
// contract, used for local development and end-to-end client tests.
package mockserver

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// User seeds an account.
type User struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     string
}

type account struct {
	User
	hash []byte
}

type record struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Comentario  string     `json:"comentario"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt"`
	owner       string
}

// Server serves the REST contract from memory.
type Server struct {
	echo *echo.Echo

	mu       sync.Mutex
	accounts map[string]*account
	tokens   map[string]string
	tasks    map[string]*record
	order    []string
	now      func() time.Time
}

// New creates a server with the given accounts.
func New(users ...User) (*Server, error) {
	s := &Server{
		echo:     echo.New(),
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		tasks:    make(map[string]*record),
		now:      time.Now,
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.Username, err)
		}
		s.accounts[u.Username] = &account{User: u, hash: hash}
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestLogger)
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.POST("/users/login", s.login)

	users := s.echo.Group("/users", s.requireToken)
	users.POST("/logout", s.logout)
	users.PUT("/change-password", s.changePassword)

	tasks := s.echo.Group("/tasks", s.requireToken)
	tasks.GET("/my-tasks", s.listTasks)
	tasks.POST("/", s.createTask)
	tasks.PUT("/:id", s.updateTask)
	tasks.DELETE("/:id", s.deleteTask)
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until the server fails.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Seed adds tasks owned by username and returns their ids in order.
func (s *Server) Seed(username string, tasks ...SeedTask) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		status := strings.ToLower(t.Status)
		if status == "" {
			status = "pending"
		}
		rec := s.insert(username, t.Title, t.Description, status, t.Comment)
		ids = append(ids, rec.ID)
	}
	return ids
}

// SeedTask describes a task created through Seed.
type SeedTask struct {
	Title       string
	Description string
	Status      string
	Comment     string
}

// SampleTasks are the incidents the app shipped as examples.
var SampleTasks = []SeedTask{
	{Title: "Fuga de agua", Description: "Tubería rota en cocina", Status: "pending"},
	{Title: "Luz pasillo", Description: "Bombilla fundida planta 2", Status: "in_progress", Comment: "Repuestos pedidos"},
	{Title: "Aire Acondicionado", Description: "Mantenimiento anual", Status: "done", Comment: "Todo OK"},
}

func (s *Server) insert(owner, title, description, status, comment string) *record {
	rec := &record{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		Comentario:  comment,
		CreatedAt:   s.now().UTC(),
		owner:       owner,
	}
	if status == "done" {
		finished := rec.CreatedAt
		rec.FinishedAt = &finished
	}
	s.tasks[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		log.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Dur("took", time.Since(start)).
			Err(err).
			Msg("mock request")
		return err
	}
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		s.mu.Lock()
		username, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		c.Set("username", username)
		c.Set("token", token)
		return next(c)
	}
}

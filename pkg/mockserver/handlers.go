package mockserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Comentario  string `json:"comentario"`
}

var validStatuses = map[string]bool{"pending": true, "in_progress": true, "done": true}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.Username]
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	token := uuid.NewString()
	s.tokens[token] = acc.Username
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  userResponse{Name: acc.Name, Email: acc.Email, Role: acc.Role},
	})
}

func (s *Server) logout(c echo.Context) error {
	s.mu.Lock()
	delete(s.tokens, c.Get("token").(string))
	s.mu.Unlock()
	return c.JSON(http.StatusOK, struct{}{})
}

func (s *Server) changePassword(c echo.Context) error {
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "newPassword is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not hash password")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[c.Get("username").(string)].hash = hash
	return c.JSON(http.StatusOK, struct{}{})
}

func (s *Server) listTasks(c echo.Context) error {
	username := c.Get("username").(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*record, 0, len(s.order))
	for _, id := range s.order {
		if rec := s.tasks[id]; rec.owner == username {
			out = append(out, rec)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	status := strings.ToLower(req.Status)
	if status == "" {
		status = "pending"
	}
	if !validStatuses[status] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.insert(c.Get("username").(string), req.Title, req.Description, status, req.Comentario)
	return c.JSON(http.StatusCreated, rec)
}

// lookup returns the caller's task or nil. Callers hold s.mu.
func (s *Server) lookup(c echo.Context) *record {
	rec, ok := s.tasks[c.Param("id")]
	if !ok || rec.owner != c.Get("username").(string) {
		return nil
	}
	return rec
}

func (s *Server) updateTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	status := strings.ToLower(req.Status)
	if !validStatuses[status] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.lookup(c)
	if rec == nil {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	rec.Title = req.Title
	rec.Description = req.Description
	rec.Comentario = req.Comentario
	switch {
	case status == "done" && rec.Status != "done":
		finished := s.now().UTC()
		rec.FinishedAt = &finished
	case status != "done":
		rec.FinishedAt = nil
	}
	rec.Status = status
	return c.JSON(http.StatusOK, struct{}{})
}

func (s *Server) deleteTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.lookup(c)
	if rec == nil {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	delete(s.tasks, rec.ID)
	for i, id := range s.order {
		if id == rec.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return c.JSON(http.StatusOK, struct{}{})
}

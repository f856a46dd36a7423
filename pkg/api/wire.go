package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/rs/zerolog/log"
)

// wireID accepts ids sent either as JSON strings or numbers.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("failed to parse task id %s: %w", b, err)
	}
	*id = wireID(n.String())
	return nil
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// wireTime is a server timestamp, either a string in one of wireTimeLayouts
// or epoch milliseconds. Timestamps are display-only: empty, null and
// unreadable values all decode to the zero value.
type wireTime struct {
	time.Time
}

func (wt *wireTime) UnmarshalJSON(b []byte) error {
	wt.Time = time.Time{}
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			wt.Time = time.UnixMilli(ms).UTC()
			return nil
		}
	}
	for _, layout := range wireTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			wt.Time = t
			return nil
		}
	}
	log.Debug().Str("value", s).Msg("ignoring unreadable timestamp")
	return nil
}

func (wt *wireTime) ptr() *time.Time {
	if wt == nil || wt.IsZero() {
		return nil
	}
	t := wt.Time
	return &t
}

type wireTask struct {
	ID          wireID    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Comentario  string    `json:"comentario"`
	CreatedAt   *wireTime `json:"createdAt,omitempty"`
	FinishedAt  *wireTime `json:"finishedAt,omitempty"`
}

func (w wireTask) toModel() model.Task {
	status, _ := model.ParseStatus(w.Status)
	return model.Task{
		ID:          string(w.ID),
		Title:       w.Title,
		Description: w.Description,
		Status:      status,
		Comment:     w.Comentario,
		CreatedAt:   w.CreatedAt.ptr(),
		FinishedAt:  w.FinishedAt.ptr(),
	}
}

type taskBody struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Comentario  string `json:"comentario"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type wireUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  wireUser `json:"user"`
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

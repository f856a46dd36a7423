package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a task. Values are uppercase locally.
type Status string

const (
	PENDING     Status = "PENDING"
	IN_PROGRESS Status = "IN_PROGRESS"
	DONE        Status = "DONE"
)

// Statuses lists the states in display order.
var Statuses = []Status{PENDING, IN_PROGRESS, DONE}

var statusAliases = map[string]Status{
	"PENDING":     PENDING,
	"PENDIENTE":   PENDING,
	"IN_PROGRESS": IN_PROGRESS,
	"IN PROGRESS": IN_PROGRESS,
	"INPROGRESS":  IN_PROGRESS,
	"IN-PROGRESS": IN_PROGRESS,
	"PROCESO":     IN_PROGRESS,
	"EN_PROCESO":  IN_PROGRESS,
	"DONE":        DONE,
	"HECHO":       DONE,
	"COMPLETED":   DONE,
}

// ParseStatus normalizes a status token from any backend generation.
// The boolean reports whether the token was recognized; unknown tokens read as PENDING.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return PENDING, false
	}
	return st, true
}

// Wire returns the lowercase token the remote service expects.
func (s Status) Wire() string {
	return strings.ToLower(string(s))
}

// Task is a trackable work item ("incidencia").
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Comment     string
	// Photos are local image references; they never leave the device.
	Photos []string
	// Display only, supplied by the server.
	CreatedAt  *time.Time
	FinishedAt *time.Time
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	if t.Photos != nil {
		t.Photos = append([]string(nil), t.Photos...)
	}
	return t
}

// HasPhoto reports whether ref is attached to the task.
func (t Task) HasPhoto(ref string) bool {
	for _, p := range t.Photos {
		if p == ref {
			return true
		}
	}
	return false
}

// UserProfile is the read-only profile returned by login.
type UserProfile struct {
	Name  string
	Email string
	Role  string
}

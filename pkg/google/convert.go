package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"google.golang.org/api/calendar/v3"
)

// TaskIDProperty is the private extended property linking an event to its task.
const TaskIDProperty = "taskflow_id"

const defaultDuration = 30 * time.Minute

// Calendar color ids matching the status badges: tangerine, blueberry, basil.
var statusColors = map[model.Status]string{
	model.PENDING:     "6",
	model.IN_PROGRESS: "9",
	model.DONE:        "10",
}

// ConvertTaskToEvent projects a task onto a calendar event spanning its
// creation to its completion.
func ConvertTaskToEvent(task model.Task) (*calendar.Event, error) {
	if task.ID == "" {
		return nil, fmt.Errorf("could not convert task without id")
	}
	if task.CreatedAt == nil {
		return nil, fmt.Errorf("task %s has no creation time", task.ID)
	}

	start := *task.CreatedAt
	end := start.Add(defaultDuration)
	if task.FinishedAt != nil && task.FinishedAt.After(start) {
		end = *task.FinishedAt
	}

	summary := task.Title
	switch task.Status {
	case model.DONE:
		summary = "✓ " + task.Title
	case model.IN_PROGRESS:
		summary = "‣ " + task.Title
	}

	var desc strings.Builder
	if task.Description != "" {
		desc.WriteString(task.Description)
		desc.WriteString("\n\n")
	}
	desc.WriteString(fmt.Sprintf("Status: %s\n", task.Status))
	if task.Comment != "" {
		desc.WriteString(fmt.Sprintf("Comment: %s\n", task.Comment))
	}
	desc.WriteString(fmt.Sprintf("ID: %s\n", task.ID))

	colorID, ok := statusColors[task.Status]
	if !ok {
		colorID = statusColors[model.PENDING]
	}

	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ColorId:     colorID,
		Start:       &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: task.ID},
		},
	}, nil
}

// EventNeedsUpdate returns the patch that brings existing in line with target,
// or nil when they already agree.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	sameStart, err := sameInstant(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameInstant(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameInstant(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil || a.DateTime == "" || b.DateTime == "" {
		return a != nil && b != nil && a.DateTime == b.DateTime, nil
	}
	at, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	bt, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return at.Equal(bt), nil
}

package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/taskflow/pkg/auth"
	"github.com/harrisonrobin/taskflow/pkg/index"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/calendar/v3"
)

// CalendarClient mirrors tasks onto events of a single calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
}

// NewClient authorizes with the credentials in dir and resolves calendarName.
func NewClient(ctx context.Context, dir, calendarName string, idx *index.EventIndex) (*CalendarClient, error) {
	srv, err := auth.CalendarService(ctx, dir)
	if err != nil {
		return nil, err
	}
	calendarID, err := FindCalendar(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}
	return NewCalendarClient(srv, calendarID, idx), nil
}

// FindCalendar returns the id of the calendar whose summary is name.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", name)
}

// NewCalendarClient mirrors into calendarID. idx may be nil, in which case
// events are looked up by their task id property.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx}
}

// SyncTask creates the task's event or patches it when it drifted.
func (c *CalendarClient) SyncTask(ctx context.Context, task model.Task) (*calendar.Event, error) {
	event, err := ConvertTaskToEvent(task)
	if err != nil {
		return nil, err
	}

	var existing *calendar.Event
	if c.index != nil {
		if eventID := c.index.Get(task.ID); eventID != "" {
			existing, err = c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err != nil {
				existing = nil
			}
		}
	}
	if existing == nil {
		existing, err = c.GetEventByTaskID(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existing != nil {
		patch, err := EventNeedsUpdate(existing, event)
		if err != nil {
			return nil, fmt.Errorf("could not compare task %s with its event: %w", task.ID, err)
		}
		if patch == nil {
			c.remember(task.ID, existing.Id)
			return existing, nil
		}
		updated, err := c.srv.Events.Patch(c.calendarID, existing.Id, patch).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		c.remember(task.ID, updated.Id)
		return updated, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	c.remember(task.ID, created.Id)
	return created, nil
}

// SyncAll mirrors every task that has a creation time and returns how many
// were synced. Failures are logged and skipped.
func (c *CalendarClient) SyncAll(ctx context.Context, tasks []model.Task) int {
	synced := 0
	for _, task := range tasks {
		if task.CreatedAt == nil {
			continue
		}
		if _, err := c.SyncTask(ctx, task); err != nil {
			log.Warn().Err(err).Str("task", task.ID).Msg("could not mirror task")
			continue
		}
		synced++
	}
	if c.index != nil {
		if err := c.index.Save(); err != nil {
			log.Warn().Err(err).Msg("could not save event index")
		}
		log.Debug().Int("synced", synced).Int("mirrored", c.index.Len()).Msg("calendar mirror updated")
	}
	return synced
}

// RemoveTask deletes the event mirroring taskID, if any.
func (c *CalendarClient) RemoveTask(ctx context.Context, taskID string) error {
	eventID := ""
	if c.index != nil {
		eventID = c.index.Get(taskID)
	}
	if eventID == "" {
		event, err := c.GetEventByTaskID(ctx, taskID)
		if err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		eventID = event.Id
	}
	if err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return err
	}
	if c.index != nil {
		c.index.Remove(taskID)
		return c.index.Save()
	}
	return nil
}

// GetEventByTaskID finds the event carrying taskID in its private properties.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

func (c *CalendarClient) remember(taskID, eventID string) {
	if c.index != nil {
		c.index.Set(taskID, eventID)
	}
}

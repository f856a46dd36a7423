// Package photos keeps client-local image references on tasks and decodes them
// for display. Nothing here talks to the remote service.
package photos

import (
	"image"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// Manager edits a task's photo sequence and pushes the result to onChange.
type Manager struct {
	onChange func(model.Task)
}

// NewManager creates a manager. onChange may be nil.
func NewManager(onChange func(model.Task)) *Manager {
	if onChange == nil {
		onChange = func(model.Task) {}
	}
	return &Manager{onChange: onChange}
}

// Attach appends ref unless the task already references it.
func (m *Manager) Attach(task model.Task, ref string) model.Task {
	task = task.Clone()
	if ref != "" && !task.HasPhoto(ref) {
		task.Photos = append(task.Photos, ref)
	}
	m.onChange(task)
	return task
}

// Detach removes ref from the task's photos.
func (m *Manager) Detach(task model.Task, ref string) model.Task {
	task = task.Clone()
	if task.HasPhoto(ref) {
		kept := make([]string, 0, len(task.Photos)-1)
		for _, p := range task.Photos {
			if p != ref {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		task.Photos = kept
	}
	m.onChange(task)
	return task
}

// Decode loads ref for display; see the package-level Decode.
func (m *Manager) Decode(ref string, thumbnail bool) (image.Image, bool) {
	return Decode(ref, thumbnail)
}

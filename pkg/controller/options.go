package controller

import "github.com/harrisonrobin/taskflow/pkg/model"

// ErrorFunc receives a short, human-readable message whenever an operation fails.
type ErrorFunc func(msg string)

// ChangeFunc receives a snapshot after every published state change.
type ChangeFunc func(State)

// State is an immutable snapshot of the controller.
type State struct {
	Tasks    []model.Task
	Loading  bool
	LoggedIn bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithErrorFunc sets the callback that failures are reported to.
func WithErrorFunc(fn ErrorFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// WithChangeFunc sets the callback that state snapshots are published to.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.onChange = fn
		}
	}
}

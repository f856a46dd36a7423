package session

import (
	"testing"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, s.Token())

	s.Set(Session{Token: "abc", User: model.UserProfile{Name: "Alice"}})
	sess, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "abc", sess.Token)
	assert.Equal(t, "Alice", sess.User.Name)

	s.Clear()
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestSetEmptyTokenClears(t *testing.T) {
	s := NewStore()
	s.Set(Session{Token: "abc"})
	s.Set(Session{User: model.UserProfile{Name: "ghost"}})
	_, ok := s.Current()
	assert.False(t, ok)
}

// Package index remembers which calendar event mirrors which task.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const fileName = "events.json"

// EventIndex maps task ids to calendar event ids and persists them as JSON.
type EventIndex struct {
	mappings map[string]string
	path     string
	mu       sync.RWMutex
	dirty    bool
}

// Open loads the index stored in dir, or starts an empty one.
func Open(dir string) (*EventIndex, error) {
	idx := &EventIndex{
		mappings: make(map[string]string),
		path:     filepath.Join(dir, fileName),
	}
	f, err := os.Open(idx.path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&idx.mappings); err != nil {
		return nil, err
	}
	if idx.mappings == nil {
		idx.mappings = make(map[string]string)
	}
	return idx, nil
}

// Save writes the index if it changed since the last save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(idx.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(idx.mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.mappings[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.mappings[taskID] != eventID {
		idx.mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.mappings[taskID]; exists {
		delete(idx.mappings, taskID)
		idx.dirty = true
	}
}

// Len is the number of mirrored tasks.
func (idx *EventIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.mappings)
}

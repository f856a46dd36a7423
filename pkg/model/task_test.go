package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"pending":     PENDING,
		"pendiente":   PENDING,
		" Proceso ":   IN_PROGRESS,
		"in_progress": IN_PROGRESS,
		"hecho":       DONE,
		"DONE":        DONE,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseStatus("archived")
	assert.False(t, ok)
	assert.Equal(t, PENDING, got)
}

func TestStatusWire(t *testing.T) {
	assert.Equal(t, "in_progress", IN_PROGRESS.Wire())
	assert.Equal(t, "done", DONE.Wire())
}

func TestCloneDoesNotSharePhotos(t *testing.T) {
	orig := Task{ID: "1", Photos: []string{"a.jpg"}}
	c := orig.Clone()
	c.Photos[0] = "b.jpg"
	assert.Equal(t, "a.jpg", orig.Photos[0])
}

func TestFilter(t *testing.T) {
	tasks := []Task{
		{ID: "1", Title: "Fuga de agua", Description: "Tubería rota en cocina", Status: PENDING},
		{ID: "2", Title: "Luz pasillo", Description: "Bombilla fundida", Status: IN_PROGRESS, Comment: "Repuestos pedidos"},
		{ID: "3", Title: "Aire Acondicionado", Description: "Mantenimiento anual", Status: DONE},
	}

	t.Run("AllStatuses", func(t *testing.T) {
		assert.Len(t, Filter(tasks, "", ""), 3)
	})

	t.Run("ByStatus", func(t *testing.T) {
		got := Filter(tasks, DONE, "")
		if assert.Len(t, got, 1) {
			assert.Equal(t, "3", got[0].ID)
		}
	})

	t.Run("QueryMatchesComment", func(t *testing.T) {
		got := Filter(tasks, "", "REPUESTOS")
		if assert.Len(t, got, 1) {
			assert.Equal(t, "2", got[0].ID)
		}
	})

	t.Run("StatusAndQuery", func(t *testing.T) {
		assert.Empty(t, Filter(tasks, PENDING, "bombilla"))
	})
}

func TestGroupByStatus(t *testing.T) {
	groups := GroupByStatus([]Task{
		{ID: "1", Status: PENDING},
		{ID: "2", Status: DONE},
		{ID: "3", Status: PENDING},
	})
	assert.Len(t, groups[PENDING], 2)
	assert.Equal(t, "3", groups[PENDING][1].ID)
	assert.Len(t, groups[DONE], 1)
	assert.Empty(t, groups[IN_PROGRESS])
}

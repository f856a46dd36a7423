package mockserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, srv http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, srv http.Handler, user, pass string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/users/login", "", `{"username":"`+user+`","password":"`+pass+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func TestTasksAreScopedToOwner(t *testing.T) {
	srv, err := New(
		User{Username: "alice", Password: "secret"},
		User{Username: "bob", Password: "hunter2"},
	)
	require.NoError(t, err)
	ids := srv.Seed("alice", SampleTasks...)
	require.Len(t, ids, 3)

	bob := loginAs(t, srv, "bob", "hunter2")
	rec := doJSON(t, srv, http.MethodGet, "/tasks/my-tasks", bob, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doJSON(t, srv, http.MethodDelete, "/tasks/"+ids[0], bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	alice := loginAs(t, srv, "alice", "secret")
	rec = doJSON(t, srv, http.MethodGet, "/tasks/my-tasks", alice, "")
	var tasks []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)
	assert.Equal(t, "in_progress", tasks[1]["status"])
	assert.NotNil(t, tasks[2]["finishedAt"])
}

func TestRequiresBearerToken(t *testing.T) {
	srv, err := New(User{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodGet, "/tasks/my-tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/tasks/my-tasks", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateValidatesTitle(t *testing.T) {
	srv, err := New(User{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	token := loginAs(t, srv, "alice", "secret")

	rec := doJSON(t, srv, http.MethodPost, "/tasks/", token, `{"title":"  ","description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/tasks/", token, `{"title":"Leak","description":"Kitchen pipe","status":"pending"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id"`)
}

func TestUpdateTracksFinishedAt(t *testing.T) {
	srv, err := New(User{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	ids := srv.Seed("alice", SeedTask{Title: "Leak", Description: "Kitchen pipe"})
	token := loginAs(t, srv, "alice", "secret")

	rec := doJSON(t, srv, http.MethodPut, "/tasks/"+ids[0], token, `{"title":"Leak","description":"Kitchen pipe","status":"done","comentario":"fixed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	srv.mu.Lock()
	assert.NotNil(t, srv.tasks[ids[0]].FinishedAt)
	srv.mu.Unlock()

	rec = doJSON(t, srv, http.MethodPut, "/tasks/"+ids[0], token, `{"title":"Leak","description":"Kitchen pipe","status":"pending"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	srv.mu.Lock()
	assert.Nil(t, srv.tasks[ids[0]].FinishedAt)
	srv.mu.Unlock()

	rec = doJSON(t, srv, http.MethodPut, "/tasks/"+ids[0], token, `{"title":"Leak","status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

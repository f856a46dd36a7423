package shell

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrisonrobin/taskflow/pkg/api"
	"github.com/harrisonrobin/taskflow/pkg/controller"
	"github.com/harrisonrobin/taskflow/pkg/mockserver"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/photos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	synced  int
	removed []string
}

func (m *fakeMirror) SyncAll(ctx context.Context, tasks []model.Task) int {
	m.synced += len(tasks)
	return len(tasks)
}

func (m *fakeMirror) RemoveTask(ctx context.Context, taskID string) error {
	m.removed = append(m.removed, taskID)
	return nil
}

func newTestShell(t *testing.T, openMirror MirrorFunc) (*Shell, *controller.Controller, *bytes.Buffer) {
	t.Helper()
	srv, err := mockserver.New(mockserver.User{Username: "alice", Password: "secret", Name: "Alice", Email: "alice@example.com", Role: "tech"})
	require.NoError(t, err)
	srv.Seed("alice", mockserver.SampleTasks...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	client, err := api.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	ctrl := controller.New(client, nil, controller.WithErrorFunc(func(msg string) {
		out.WriteString("error: " + msg + "\n")
	}))
	mgr := photos.NewManager(func(task model.Task) { ctrl.ApplyLocal(task) })
	store := photos.NewStore(filepath.Join(t.TempDir(), "photos"))
	return New(ctrl, mgr, store, openMirror, out), ctrl, out
}

func TestSessionCommands(t *testing.T) {
	ctx := context.Background()
	sh, ctrl, out := newTestShell(t, nil)

	sh.Exec(ctx, "list")
	assert.Contains(t, out.String(), "not logged in")

	out.Reset()
	sh.Exec(ctx, "login alice wrong")
	assert.Contains(t, out.String(), "error: ")
	_, ok := ctrl.Session()
	assert.False(t, ok)

	out.Reset()
	sh.Exec(ctx, "login alice secret")
	assert.Contains(t, out.String(), "welcome Alice (3 tasks)")

	out.Reset()
	sh.Exec(ctx, "whoami")
	assert.Contains(t, out.String(), "Alice <alice@example.com> tech")

	out.Reset()
	sh.Exec(ctx, "logout")
	_, ok = ctrl.Session()
	assert.False(t, ok)
	assert.Empty(t, ctrl.Tasks())
}

func TestTaskCommands(t *testing.T) {
	ctx := context.Background()
	sh, ctrl, out := newTestShell(t, nil)
	sh.Exec(ctx, "login alice secret")

	out.Reset()
	sh.Exec(ctx, "list done")
	assert.Contains(t, out.String(), "Aire Acondicionado")
	assert.NotContains(t, out.String(), "Fuga de agua")

	out.Reset()
	sh.Exec(ctx, "list all bombilla")
	assert.Contains(t, out.String(), "Luz pasillo")
	assert.NotContains(t, out.String(), "Aire")

	out.Reset()
	sh.Exec(ctx, "new Leak | Kitchen pipe")
	assert.Contains(t, out.String(), "created")
	leak := model.Filter(ctrl.Tasks(), "", "Kitchen pipe")
	require.Len(t, leak, 1)
	assert.Equal(t, model.PENDING, leak[0].Status)

	out.Reset()
	sh.Exec(ctx, "status "+leak[0].ID+" done")
	got, _ := ctrl.Task(leak[0].ID)
	assert.Equal(t, model.DONE, got.Status)

	sh.Exec(ctx, "comment "+leak[0].ID+" joint replaced")
	got, _ = ctrl.Task(leak[0].ID)
	assert.Equal(t, "joint replaced", got.Comment)

	out.Reset()
	sh.Exec(ctx, "show "+leak[0].ID)
	assert.Contains(t, out.String(), "finished:")

	out.Reset()
	sh.Exec(ctx, "delete "+leak[0].ID)
	assert.Contains(t, out.String(), "deleted")
	assert.Len(t, ctrl.Tasks(), 3)

	out.Reset()
	sh.Exec(ctx, "delete "+leak[0].ID)
	assert.Contains(t, out.String(), "error: ")
	assert.Len(t, ctrl.Tasks(), 3)

	out.Reset()
	sh.Exec(ctx, "sections")
	assert.Contains(t, out.String(), "== IN_PROGRESS (1)")
}

func TestPhotoCommands(t *testing.T) {
	ctx := context.Background()
	sh, ctrl, out := newTestShell(t, nil)
	sh.Exec(ctx, "login alice secret")
	id := ctrl.Tasks()[0].ID

	src := filepath.Join(t.TempDir(), "leak.png")
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 16, 8))))
	f.Close()

	out.Reset()
	sh.Exec(ctx, "photo add "+id+" "+src)
	assert.Contains(t, out.String(), "(1 photos)")
	task, _ := ctrl.Task(id)
	require.Len(t, task.Photos, 1)
	ref := task.Photos[0]

	out.Reset()
	sh.Exec(ctx, "photo show "+ref+" thumb")
	assert.Equal(t, "4x2\n", out.String())

	out.Reset()
	sh.Exec(ctx, "photo rm "+id+" "+ref)
	assert.Contains(t, out.String(), "0 photos left")

	out.Reset()
	sh.Exec(ctx, "photo show /does/not/exist.jpg")
	assert.Contains(t, out.String(), "(no image)")

	sh.Exec(ctx, "photo add "+id+" "+src)
	sh.Exec(ctx, "refresh")
	task, _ = ctrl.Task(id)
	assert.Empty(t, task.Photos, "photos are client-local and lost on reload")
}

func TestMirrorCommands(t *testing.T) {
	ctx := context.Background()
	mirror := &fakeMirror{}
	opened := 0
	sh, _, out := newTestShell(t, func(context.Context) (Mirror, error) {
		opened++
		return mirror, nil
	})
	sh.Exec(ctx, "login alice secret")

	out.Reset()
	sh.Exec(ctx, "mirror")
	sh.Exec(ctx, "unmirror abc")
	assert.Contains(t, out.String(), "mirrored 3 tasks")
	assert.Equal(t, []string{"abc"}, mirror.removed)
	assert.Equal(t, 1, opened)
}

func TestMirrorOpenFailure(t *testing.T) {
	ctx := context.Background()
	sh, _, out := newTestShell(t, func(context.Context) (Mirror, error) {
		return nil, errors.New("no credentials")
	})
	sh.Exec(ctx, "login alice secret")
	out.Reset()
	sh.Exec(ctx, "mirror")
	assert.Contains(t, out.String(), "error: no credentials")
}

func TestRunStopsOnQuit(t *testing.T) {
	sh, _, out := newTestShell(t, nil)
	err := sh.Run(context.Background(), strings.NewReader("help\nbogus\nnew onlytitle\nquit\nlogin alice secret\n"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "unknown command \"bogus\"")
	assert.Contains(t, out.String(), "usage: new <title>")
	assert.NotContains(t, out.String(), "welcome")
}

package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"scheduleBoard/internal/app"
	"scheduleBoard/internal/config"
	"scheduleBoard/internal/interaction"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/rpc"
	"scheduleBoard/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mastersYAML = `
channels:
  - channel: YouTube
    is_active: true
    sort_order: 1
  - channel: TV
    is_active: true
    sort_order: 2
task_types:
  - task_type: Edit
    is_active: true
    sort_order: 1
statuses:
  - status: Todo
    is_active: true
    sort_order: 1
    color: "#adb5bd"
`

type notices struct {
	mtx   sync.Mutex
	kinds []session.NoticeKind
}

func (n *notices) Notify(kind session.NoticeKind, _ string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *notices) all() []session.NoticeKind {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return append([]session.NoticeKind(nil), n.kinds...)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	mastersFile := filepath.Join(dir, "masters.yml")
	require.NoError(t, os.WriteFile(mastersFile, []byte(mastersYAML), 0o600))

	cfg := &config.Config{
		Server:     config.ServerConfig{Port: "0", RateLimit: 1000, AllowedOrigins: []string{"*"}},
		Repository: config.RepositoryConfig{Type: "inmemory"},
		Users: []config.UserConfig{
			{Email: "alice@example.com", Role: task.RoleEditor},
			{Email: "bob@example.com", Role: task.RoleAdmin},
		},
		Masters: config.MastersConfig{File: mastersFile},
	}

	a, err := app.New(cfg).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return srv
}

func newSession(t *testing.T, srv *httptest.Server, email string, n session.Notifier) *session.Session {
	t.Helper()

	transport := rpc.NewHTTPTransport(srv.URL+"/rpc", rpc.WithUser(email), rpc.WithTimeout(5*time.Second))
	s := session.New(rpc.NewClient(transport), session.WithNotifier(n))
	require.NoError(t, s.Load(context.Background()))
	return s
}

// TestApp_Health тестирует /health
func TestApp_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

// TestApp_ConcurrentEditors тестирует конфликт версий между двумя сессиями
func TestApp_ConcurrentEditors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	aliceNotices, bobNotices := &notices{}, &notices{}
	alice := newSession(t, srv, "alice@example.com", aliceNotices)
	bob := newSession(t, srv, "Bob@Example.com", bobNotices)

	assert.Equal(t, task.RoleEditor, alice.Role())
	assert.Equal(t, task.RoleAdmin, bob.Role())
	assert.Equal(t, "bob@example.com", bob.Email())

	created, err := alice.Create(ctx, task.TaskDraft{
		Status: "Todo", Channel: "TV", Assignee: "alice", ScriptNo: "12",
		TaskType: "Edit", TaskName: "cut", StartDate: "2024-06-03", EndDate: "2024-06-05",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	require.NoError(t, bob.Refresh(ctx))
	stale, ok := bob.Task(created.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stale.Version)

	require.NoError(t, alice.MoveTask(ctx, interaction.MoveIntent{TaskID: created.ID, StartDate: "2024-06-04", EndDate: "2024-06-06"}))
	moved, ok := alice.Task(created.ID)
	require.True(t, ok)
	assert.Equal(t, 2, moved.Version)

	err = bob.MoveTask(ctx, interaction.MoveIntent{TaskID: created.ID, StartDate: "2024-06-10", EndDate: "2024-06-12"})
	require.Error(t, err)
	assert.True(t, rpc.IsConflict(err))
	assert.Equal(t, []session.NoticeKind{session.NoticeBanner}, bobNotices.all())

	fresh, ok := bob.Task(created.ID)
	require.True(t, ok)
	assert.Equal(t, 2, fresh.Version)
	assert.Equal(t, "2024-06-04", fresh.StartDate)

	require.NoError(t, bob.Delete(ctx, created.ID))
	_, ok = bob.Task(created.ID)
	assert.False(t, ok)

	err = alice.MoveTask(ctx, interaction.MoveIntent{TaskID: created.ID, StartDate: "2024-06-07", EndDate: "2024-06-07"})
	assert.Equal(t, rpc.CodeNotFound, rpc.CodeOf(err))
	_, ok = alice.Task(created.ID)
	assert.False(t, ok)
	assert.Empty(t, alice.Tasks())
}

// TestApp_ViewerAndReleases тестирует права и даты релиза через HTTP
func TestApp_ViewerAndReleases(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	viewerNotices := &notices{}
	viewer := newSession(t, srv, "guest@example.com", viewerNotices)
	assert.Equal(t, task.RoleViewer, viewer.Role())
	assert.False(t, viewer.CanEdit())

	_, err := viewer.UpsertReleaseDate(ctx, "TV", "12", "2024-06-20")
	assert.Equal(t, rpc.CodeForbidden, rpc.CodeOf(err))
	assert.Equal(t, []session.NoticeKind{session.NoticeAlert}, viewerNotices.all())

	editor := newSession(t, srv, "alice@example.com", &notices{})
	saved, err := editor.UpsertReleaseDate(ctx, "TV", "12", "2024-06-20")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-20", saved.ReleaseDate)

	_, err = editor.UpsertReleaseDate(ctx, "TV", "12", "2024-06-21")
	require.NoError(t, err)

	require.NoError(t, viewer.Refresh(ctx))
	releases := viewer.ReleaseDates()
	require.Len(t, releases, 1)
	assert.Equal(t, "2024-06-21", releases[0].ReleaseDate)

	_, err = editor.UpsertReleaseDate(ctx, "Radio", "1", "2024-06-20")
	assert.Equal(t, rpc.CodeValidation, rpc.CodeOf(err))
}

package session_test

import (
	"context"
	"encoding/json"
	"scheduleBoard/internal/calendar"
	"scheduleBoard/internal/interaction"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/rpc"
	"scheduleBoard/internal/session"
	"scheduleBoard/internal/timeline"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	action  string
	payload json.RawMessage
}

// fakeBackend - сервер в памяти за rpc.Invoker.
// Ответ на действие можно переопределить через on.
type fakeBackend struct {
	mtx      sync.Mutex
	boot     task.Bootstrap
	tasks    []task.Task
	releases []task.ReleaseDate
	on       map[string]func(payload json.RawMessage) *rpc.Envelope
	calls    []call
}

func (f *fakeBackend) Invoke(ctx context.Context, action string, payload any) (*rpc.Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	f.mtx.Lock()
	f.calls = append(f.calls, call{action: action, payload: raw})
	handler := f.on[action]
	tasks := append([]task.Task(nil), f.tasks...)
	releases := append([]task.ReleaseDate(nil), f.releases...)
	boot := f.boot
	f.mtx.Unlock()

	if handler != nil {
		return handler(raw), nil
	}

	switch action {
	case rpc.ActionBootstrap:
		return rpc.Success(boot)
	case rpc.ActionTasksList:
		return rpc.Success(tasks)
	case rpc.ActionReleaseDatesList:
		return rpc.Success(releases)
	case rpc.ActionTasksDelete:
		var p rpc.DeleteTaskPayload
		_ = json.Unmarshal(raw, &p)
		return rpc.Success(rpc.DeletedTask{ID: p.ID})
	}
	return rpc.Failure(rpc.CodeInternal, "unexpected action "+action), nil
}

func (f *fakeBackend) setHandler(action string, h func(payload json.RawMessage) *rpc.Envelope) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.on == nil {
		f.on = map[string]func(json.RawMessage) *rpc.Envelope{}
	}
	f.on[action] = h
}

func (f *fakeBackend) setTasks(tasks ...task.Task) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.tasks = tasks
}

func (f *fakeBackend) actions() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	res := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		res = append(res, c.action)
	}
	return res
}

func (f *fakeBackend) resetCalls() {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.calls = nil
}

func (f *fakeBackend) payloadsOf(action string) []json.RawMessage {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	res := []json.RawMessage{}
	for _, c := range f.calls {
		if c.action == action {
			res = append(res, c.payload)
		}
	}
	return res
}

type notice struct {
	kind    session.NoticeKind
	message string
}

type noticeLog struct {
	mtx     sync.Mutex
	notices []notice
}

func (n *noticeLog) Notify(kind session.NoticeKind, message string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.notices = append(n.notices, notice{kind: kind, message: message})
}

func (n *noticeLog) all() []notice {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return append([]notice(nil), n.notices...)
}

func testMasters() task.MasterData {
	return task.MasterData{
		Channels: []task.MasterChannel{
			{Channel: "YouTube", IsActive: true, SortOrder: 2},
			{Channel: "TV", IsActive: true, SortOrder: 1},
			{Channel: "Radio", IsActive: false, SortOrder: 0},
		},
		TaskTypes: []task.MasterTaskType{
			{TaskType: "Edit", IsActive: true, SortOrder: 2},
			{TaskType: "Script", IsActive: true, SortOrder: 1},
		},
		Statuses: []task.MasterStatus{
			{Status: "Done", IsActive: true, SortOrder: 3, Color: "#00ff00"},
			{Status: "Todo", IsActive: true, SortOrder: 1, Color: "#cccccc"},
		},
	}
}

func sampleTask(id, channel, scriptNo string, version int) task.Task {
	return task.Task{
		ID:        id,
		Version:   version,
		Status:    "Todo",
		Channel:   channel,
		Assignee:  "sato",
		ScriptNo:  scriptNo,
		TaskType:  "Script",
		TaskName:  "Task " + id,
		StartDate: "2024-06-01",
		EndDate:   "2024-06-03",
	}
}

func fullDraft() task.TaskDraft {
	return task.TaskDraft{
		Status:    "Todo",
		Channel:   "TV",
		Assignee:  "sato",
		ScriptNo:  "12",
		TaskType:  "Script",
		TaskName:  "Draft",
		StartDate: "2024-06-01",
		EndDate:   "2024-06-02",
	}
}

func newLoadedSession(t *testing.T, role task.Role, tasks ...task.Task) (*session.Session, *fakeBackend, *noticeLog) {
	t.Helper()

	backend := &fakeBackend{
		boot: task.Bootstrap{Role: role, Email: "sato@example.com", Masters: testMasters()},
		releases: []task.ReleaseDate{
			{Channel: "TV", ScriptNo: "12", ReleaseDate: "2024-06-10"},
			{Channel: "YouTube", ScriptNo: "3", ReleaseDate: "2024-06-11"},
		},
	}
	backend.setTasks(tasks...)

	notices := &noticeLog{}
	s := session.New(rpc.NewClient(backend),
		session.WithNotifier(notices),
		session.WithClock(func() time.Time { return time.Date(2024, 6, 4, 20, 0, 0, 0, time.UTC) }))

	require.NoError(t, s.Load(context.Background()))
	backend.resetCalls()
	return s, backend, notices
}

// TestSession_Load тестирует bootstrap и первое чтение снимка
func TestSession_Load(t *testing.T) {
	s, _, _ := newLoadedSession(t, task.RoleEditor,
		sampleTask("t1", "YouTube", "1", 1),
		sampleTask("t2", "TV", "10", 1),
		sampleTask("t3", "TV", "2", 1),
	)

	assert.Equal(t, task.RoleEditor, s.Role())
	assert.Equal(t, "sato@example.com", s.Email())
	assert.True(t, s.CanEdit())
	assert.Equal(t, []string{"TV", "YouTube"}, s.VisibleChannels())

	ids := []string{}
	for _, tk := range s.VisibleTasks() {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"t3", "t2", "t1"}, ids)
	assert.Len(t, s.Tasks(), 3)
	assert.Len(t, s.VisibleReleaseDates(), 2)
}

// TestSession_LoadUnknownRole - неизвестная роль понижается до viewer
func TestSession_LoadUnknownRole(t *testing.T) {
	s, _, _ := newLoadedSession(t, task.Role("owner"))

	assert.Equal(t, task.RoleViewer, s.Role())
	assert.False(t, s.CanEdit())
}

// TestSession_ChannelFilter тестирует фильтр канала и инвариант выделения
func TestSession_ChannelFilter(t *testing.T) {
	s, _, _ := newLoadedSession(t, task.RoleEditor,
		sampleTask("t1", "YouTube", "1", 1),
		sampleTask("t2", "TV", "10", 1),
	)

	require.True(t, s.Select("t1"))
	assert.Equal(t, "t1", s.SelectedTaskID())

	s.SetChannelFilter("TV")
	assert.Equal(t, "TV", s.ChannelFilter())
	assert.Equal(t, []string{"TV"}, s.VisibleChannels())
	assert.Len(t, s.VisibleTasks(), 1)
	assert.Len(t, s.VisibleReleaseDates(), 1)
	assert.Empty(t, s.SelectedTaskID(), "selection on a hidden channel must be cleared")

	assert.False(t, s.Select("t1"))
	assert.True(t, s.Select("t2"))

	s.SetChannelFilter("")
	assert.Equal(t, session.ChannelAll, s.ChannelFilter())
	assert.Equal(t, "t2", s.SelectedTaskID())
}

// TestSession_SelectionClearedOnRefresh - выделение исчезнувшей задачи снимается
func TestSession_SelectionClearedOnRefresh(t *testing.T) {
	s, backend, _ := newLoadedSession(t, task.RoleViewer, sampleTask("t1", "TV", "1", 1))
	require.True(t, s.Select("t1"))

	backend.setTasks()
	require.NoError(t, s.Refresh(context.Background()))

	assert.Empty(t, s.SelectedTaskID())
	_, ok := s.SelectedTask()
	assert.False(t, ok)
}

// TestSession_UpdateConflict - CONFLICT: уведомление, перечитывание, без повтора
func TestSession_UpdateConflict(t *testing.T) {
	s, backend, notices := newLoadedSession(t, task.RoleEditor, sampleTask("t1", "TV", "1", 3))
	backend.setHandler(rpc.ActionTasksUpdate, func(json.RawMessage) *rpc.Envelope {
		return rpc.Failure(rpc.CodeConflict, "version mismatch")
	})

	draft, version, ok := s.EditDraft("t1")
	require.True(t, ok)
	require.Equal(t, 3, version)
	draft.TaskName = "Renamed"

	_, err := s.Update(context.Background(), "t1", version, draft)

	require.Error(t, err)
	assert.True(t, rpc.IsConflict(err))

	acts := backend.actions()
	require.Len(t, acts, 3)
	assert.Equal(t, rpc.ActionTasksUpdate, acts[0])
	assert.ElementsMatch(t, []string{rpc.ActionTasksList, rpc.ActionReleaseDatesList}, acts[1:])
	assert.Len(t, backend.payloadsOf(rpc.ActionTasksUpdate), 1)

	got := notices.all()
	require.Len(t, got, 1)
	assert.Equal(t, session.NoticeBanner, got[0].kind)
}

// TestSession_NotFoundRefreshes - NOT_FOUND ведёт себя как CONFLICT
func TestSession_NotFoundRefreshes(t *testing.T) {
	s, backend, notices := newLoadedSession(t, task.RoleEditor, sampleTask("t1", "TV", "1", 2))
	backend.setHandler(rpc.ActionTasksDelete, func(json.RawMessage) *rpc.Envelope {
		return rpc.Failure(rpc.CodeNotFound, "task not found")
	})

	err := s.Delete(context.Background(), "t1")

	assert.True(t, rpc.IsCode(err, rpc.CodeNotFound))
	assert.ElementsMatch(t, []string{rpc.ActionTasksDelete, rpc.ActionTasksList, rpc.ActionReleaseDatesList}, backend.actions())
	require.Len(t, notices.all(), 1)
	assert.Equal(t, session.NoticeBanner, notices.all()[0].kind)
}

// TestSession_OtherErrorsDoNotRefresh тестирует FORBIDDEN и INTERNAL от сервера
func TestSession_OtherErrorsDoNotRefresh(t *testing.T) {
	tests := []struct {
		name     string
		code     rpc.Code
		wantKind session.NoticeKind
	}{
		{name: "forbidden is blocking", code: rpc.CodeForbidden, wantKind: session.NoticeAlert},
		{name: "internal is a banner", code: rpc.CodeInternal, wantKind: session.NoticeBanner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, backend, notices := newLoadedSession(t, task.RoleEditor, sampleTask("t1", "TV", "1", 1))
			backend.setHandler(rpc.ActionTasksUpdate, func(json.RawMessage) *rpc.Envelope {
				return rpc.Failure(tt.code, "nope")
			})

			_, err := s.Update(context.Background(), "t1", 1, fullDraft())

			assert.Equal(t, tt.code, rpc.CodeOf(err))
			assert.Equal(t, []string{rpc.ActionTasksUpdate}, backend.actions())
			require.Len(t, notices.all(), 1)
			assert.Equal(t, tt.wantKind, notices.all()[0].kind)
		})
	}
}

// TestSession_MoveTaskPayload - перемещение несёт версию из снимка и только даты
func TestSession_MoveTaskPayload(t *testing.T) {
	s, backend, _ := newLoadedSession(t, task.RoleEditor, sampleTask("t1", "TV", "1", 5))
	backend.setHandler(rpc.ActionTasksUpdate, func(json.RawMessage) *rpc.Envelope {
		moved := sampleTask("t1", "TV", "1", 6)
		moved.StartDate, moved.EndDate = "2024-06-05", "2024-06-07"
		env, _ := rpc.Success(moved)
		return env
	})

	err := s.MoveTask(context.Background(), interaction.MoveIntent{TaskID: "t1", StartDate: "2024-06-05", EndDate: "2024-06-07"})

	require.NoError(t, err)
	payloads := backend.payloadsOf(rpc.ActionTasksUpdate)
	require.Len(t, payloads, 1)
	assert.JSONEq(t, `{"id":"t1","version":5,"task":{"start_date":"2024-06-05","end_date":"2024-06-07"}}`, string(payloads[0]))
	assert.Len(t, backend.payloadsOf(rpc.ActionTasksList), 1, "success refreshes the snapshot")
}

// TestSession_MoveThroughController - отказ сервера откатывает перемещение с одним уведомлением
func TestSession_MoveThroughController(t *testing.T) {
	s, backend, notices := newLoadedSession(t, task.RoleEditor, sampleTask("t1", "TV", "1", 5))
	backend.setHandler(rpc.ActionTasksUpdate, func(json.RawMessage) *rpc.Envelope {
		return rpc.Failure(rpc.CodeConflict, "version mismatch")
	})

	ctrl := interaction.NewController(s, nil, nil)
	ctrl.SetGroups(s.VisibleChannels())
	ctrl.SetEditable(s.CanEdit())

	start, err := calendar.IntervalStart("2024-06-05")
	require.NoError(t, err)
	end, err := calendar.IntervalStart("2024-06-08")
	require.NoError(t, err)

	committed := ctrl.OnItemMoveRequested(context.Background(), timeline.ItemMove{ItemID: "task:t1", Start: start, End: end})

	assert.False(t, committed)
	assert.Len(t, notices.all(), 1)
	assert.Len(t, backend.payloadsOf(rpc.ActionTasksUpdate), 1)
}

// TestSession_MoveUnknownTask - задача не из снимка не отправляется
func TestSession_MoveUnknownTask(t *testing.T) {
	s, backend, _ := newLoadedSession(t, task.RoleEditor)

	err := s.MoveTask(context.Background(), interaction.MoveIntent{TaskID: "ghost", StartDate: "2024-06-05", EndDate: "2024-06-07"})

	assert.ErrorIs(t, err, session.ErrTaskNotInSnapshot)
	assert.Empty(t, backend.actions())
}

// TestSession_ViewerCannotMutate - viewer получает FORBIDDEN без обращения к серверу
func TestSession_ViewerCannotMutate(t *testing.T) {
	s, backend, notices := newLoadedSession(t, task.RoleViewer, sampleTask("t1", "TV", "1", 1))
	ctx := context.Background()

	_, err := s.Create(ctx, fullDraft())
	assert.Equal(t, rpc.CodeForbidden, rpc.CodeOf(err))

	err = s.MoveTask(ctx, interaction.MoveIntent{TaskID: "t1", StartDate: "2024-06-05", EndDate: "2024-06-07"})
	assert.Equal(t, rpc.CodeForbidden, rpc.CodeOf(err))

	assert.Empty(t, backend.actions())
	for _, n := range notices.all() {
		assert.Equal(t, session.NoticeAlert, n.kind)
	}

	assert.True(t, s.Select("t1"), "viewer can still select")
}

// TestSession_CreateValidation - неверный черновик не уходит на сервер
func TestSession_CreateValidation(t *testing.T) {
	s, backend, notices := newLoadedSession(t, task.RoleEditor)

	draft := fullDraft()
	draft.TaskName = "  "

	_, err := s.Create(context.Background(), draft)

	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeValidation, rpcErr.Code)
	assert.Equal(t, []string{"task_name"}, rpcErr.Fields)
	assert.Empty(t, backend.actions())
	assert.Empty(t, notices.all())
}

// TestSession_CreateRefreshes тестирует успешное создание
func TestSession_CreateRefreshes(t *testing.T) {
	s, backend, _ := newLoadedSession(t, task.RoleAdmin)
	backend.setHandler(rpc.ActionTasksCreate, func(raw json.RawMessage) *rpc.Envelope {
		var p rpc.CreateTaskPayload
		_ = json.Unmarshal(raw, &p)
		created := task.Task{ID: "new", Version: 1}
		created.ApplyDraft(p.Task)
		backend.mtx.Lock()
		backend.tasks = append(backend.tasks, created)
		backend.mtx.Unlock()
		env, _ := rpc.Success(created)
		return env
	})

	created, err := s.Create(context.Background(), fullDraft())

	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	assert.NotContains(t, string(backend.payloadsOf(rpc.ActionTasksCreate)[0]), `"version"`)
	_, ok := s.Task("new")
	assert.True(t, ok)
}

// TestSession_DeleteClearsSelection тестирует снятие выделения после удаления
func TestSession_DeleteClearsSelection(t *testing.T) {
	s, backend, _ := newLoadedSession(t, task.RoleEditor, sampleTask("t1", "TV", "1", 4))
	require.True(t, s.Select("t1"))

	require.NoError(t, s.Delete(context.Background(), "t1"))

	assert.Empty(t, s.SelectedTaskID())
	assert.JSONEq(t, `{"id":"t1","version":4}`, string(backend.payloadsOf(rpc.ActionTasksDelete)[0]))
}

// TestSession_BusyTask - пока изменение задачи не завершено, второе отклоняется
func TestSession_BusyTask(t *testing.T) {
	s, backend, _ := newLoadedSession(t, task.RoleEditor, sampleTask("t1", "TV", "1", 1))

	entered := make(chan struct{})
	unblock := make(chan struct{})
	backend.setHandler(rpc.ActionTasksUpdate, func(json.RawMessage) *rpc.Envelope {
		close(entered)
		<-unblock
		env, _ := rpc.Success(sampleTask("t1", "TV", "1", 2))
		return env
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), "t1", 1, fullDraft())
		done <- err
	}()
	<-entered

	assert.ErrorIs(t, s.Delete(context.Background(), "t1"), session.ErrTaskBusy)

	close(unblock)
	assert.NoError(t, <-done)
	assert.Empty(t, backend.payloadsOf(rpc.ActionTasksDelete))
}

// TestSession_UpsertReleaseDate тестирует обязательные поля даты релиза
func TestSession_UpsertReleaseDate(t *testing.T) {
	s, backend, notices := newLoadedSession(t, task.RoleEditor)

	_, err := s.UpsertReleaseDate(context.Background(), "TV", " ", "2024-06-10")
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, []string{"script_no"}, rpcErr.Fields)
	assert.Len(t, notices.all(), 1)
	assert.Empty(t, backend.actions())

	backend.setHandler(rpc.ActionReleaseDatesUpsert, func(raw json.RawMessage) *rpc.Envelope {
		var p rpc.UpsertReleaseDatePayload
		_ = json.Unmarshal(raw, &p)
		env, _ := rpc.Success(task.ReleaseDate{Channel: p.Channel, ScriptNo: p.ScriptNo, ReleaseDate: p.ReleaseDate})
		return env
	})

	saved, err := s.UpsertReleaseDate(context.Background(), "TV", "13", "2024-06-20")
	require.NoError(t, err)
	assert.Equal(t, "13", saved.ScriptNo)
	assert.JSONEq(t, `{"channel":"TV","script_no":"13","release_date":"2024-06-20"}`,
		string(backend.payloadsOf(rpc.ActionReleaseDatesUpsert)[0]))
}

// TestSession_Projection тестирует проекцию с фильтром и выделением
func TestSession_Projection(t *testing.T) {
	s, _, _ := newLoadedSession(t, task.RoleEditor,
		sampleTask("t1", "TV", "1", 1),
		sampleTask("t2", "YouTube", "1", 1),
	)
	require.True(t, s.Select("t1"))

	p := s.Projection()
	require.Len(t, p.Groups, 2)
	assert.Equal(t, "TV", p.Groups[0].ID)

	var selected []string
	for _, it := range p.Items {
		if it.ClassName == timeline.ClassTaskSelected {
			selected = append(selected, it.ID)
		}
	}
	assert.Equal(t, []string{"task:t1"}, selected)

	s.SetChannelFilter("YouTube")
	p = s.Projection()
	require.Len(t, p.Groups, 1)
	for _, it := range p.Items {
		assert.Equal(t, "YouTube", it.Group)
		if it.Kind == timeline.KindReleaseBackground {
			assert.Contains(t, it.Style, timeline.ChannelPalette[1], "colors follow all active channels, not the filter")
		}
	}
}

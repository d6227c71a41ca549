// Package session держит снимок задач и дат релиза одного пользователя:
// выделение, фильтр канала, обновление снимка и реакцию на конфликты версий.
//
// Снимок меняется только целиком: Refresh запрашивает tasks.list и releaseDates.list
// параллельно и подменяет оба среза под мьютексом. После каждой мутации и после
// CONFLICT/NOT_FOUND снимок перечитывается безусловно.
package session

import (
	"context"
	"scheduleBoard/internal/interaction"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/sorting"
	"scheduleBoard/internal/timeline"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ChannelAll - фильтр "все каналы"
const ChannelAll = "ALL"

// Remote - удалённые процедуры, которые нужны сессии (*rpc.Client)
type Remote interface {
	Bootstrap(ctx context.Context) (task.Bootstrap, error)
	ListTasks(ctx context.Context) ([]task.Task, error)
	ListReleaseDates(ctx context.Context) ([]task.ReleaseDate, error)
	CreateTask(ctx context.Context, draft task.TaskDraft) (task.Task, error)
	UpdateTask(ctx context.Context, id string, version int, patch task.TaskPatch) (task.Task, error)
	DeleteTask(ctx context.Context, id string, version int) (string, error)
	UpsertReleaseDate(ctx context.Context, channel, scriptNo, releaseDate string) (task.ReleaseDate, error)
}

type Session struct {
	mtx      sync.RWMutex
	remote   Remote
	notifier Notifier
	now      func() time.Time

	role          task.Role
	email         string
	masters       task.MasterData
	tasks         []task.Task
	releases      []task.ReleaseDate
	selected      string
	channelFilter string

	// номер последнего запущенного и последнего применённого обновления
	refreshSeq uint64
	appliedSeq uint64

	busyMtx sync.Mutex
	busy    map[string]struct{}
}

type Option func(*Session)

func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock - источник текущего времени для черновиков по умолчанию
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func New(remote Remote, opts ...Option) *Session {
	s := &Session{
		remote:        remote,
		notifier:      logNotifier{},
		now:           time.Now,
		role:          task.RoleViewer,
		channelFilter: ChannelAll,
		busy:          make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ interaction.Mover = (*Session)(nil)

// Load - bootstrap.get, затем первое обновление снимка
func (s *Session) Load(ctx context.Context) error {
	boot, err := s.remote.Bootstrap(ctx)
	if err != nil {
		logger.Error("Session: Не удалось получить начальные данные", err)
		return err
	}

	role := boot.Role
	if !role.Valid() {
		logger.Warn("Session: Неизвестная роль, используется viewer", zap.String("role", string(role)))
		role = task.RoleViewer
	}

	s.mtx.Lock()
	s.role = role
	s.email = boot.Email
	s.masters = boot.Masters
	s.mtx.Unlock()

	logger.Info("Session: Начальные данные получены",
		zap.String("email", boot.Email),
		zap.String("role", string(role)),
		zap.Int("channels", len(boot.Masters.Channels)))

	return s.Refresh(ctx)
}

// Refresh перечитывает задачи и даты релиза.
// Если за время запроса успело примениться более позднее обновление, результат отбрасывается.
func (s *Session) Refresh(ctx context.Context) error {
	s.mtx.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	s.mtx.Unlock()

	var tasks []task.Task
	var releases []task.ReleaseDate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.remote.ListTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		releases, err = s.remote.ListReleaseDates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Session: Не удалось обновить снимок", err)
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if seq < s.appliedSeq {
		logger.Debug("Session: Устаревшее обновление отброшено", zap.Uint64("seq", seq))
		return nil
	}
	s.appliedSeq = seq
	s.tasks = tasks
	s.releases = releases
	s.ensureSelectionLocked()

	logger.Debug("Session: Снимок обновлён",
		zap.Int("tasks", len(tasks)),
		zap.Int("release_dates", len(releases)))
	return nil
}

func (s *Session) Role() task.Role {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.role
}

func (s *Session) Email() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.email
}

func (s *Session) Masters() task.MasterData {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.masters
}

func (s *Session) CanEdit() bool {
	return s.Role().CanEdit()
}

// Tasks - копия всего снимка задач без фильтра и сортировки
func (s *Session) Tasks() []task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *Session) ReleaseDates() []task.ReleaseDate {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return slices.Clone(s.releases)
}

func (s *Session) Task(taskID string) (task.Task, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.findTaskLocked(taskID)
}

// SetChannelFilter - пустая строка означает ALL
func (s *Session) SetChannelFilter(channel string) {
	if channel == "" {
		channel = ChannelAll
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.channelFilter = channel
	s.ensureSelectionLocked()
}

func (s *Session) ChannelFilter() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.channelFilter
}

// VisibleChannels - активные каналы в порядке sort_order с учётом фильтра
func (s *Session) VisibleChannels() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.visibleChannelsLocked()
}

// VisibleTasks - задачи для таблицы: фильтр канала и порядок TaskOrderer
func (s *Session) VisibleTasks() []task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.visibleTasksLocked()
}

func (s *Session) VisibleReleaseDates() []task.ReleaseDate {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.visibleReleasesLocked()
}

// Select выделяет задачу; невидимая или неизвестная задача снимает выделение
func (s *Session) Select(taskID string) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if taskID == "" || !s.isVisibleLocked(taskID) {
		s.selected = ""
		return false
	}
	s.selected = taskID
	return true
}

func (s *Session) SelectedTaskID() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.selected
}

func (s *Session) SelectedTask() (task.Task, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.selected == "" {
		return task.Task{}, false
	}
	return s.findTaskLocked(s.selected)
}

func (s *Session) StatusColors() map[string]string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.masters.StatusColors()
}

// Projection - таймлайн для текущего снимка, фильтра и выделения.
// Цвета каналов раздаются по всем активным каналам, чтобы не зависеть от фильтра.
func (s *Session) Projection() timeline.Projection {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return timeline.Project(timeline.Input{
		Channels:       s.visibleChannelsLocked(),
		Tasks:          s.visibleTasksLocked(),
		ReleaseDates:   s.visibleReleasesLocked(),
		ChannelColors:  timeline.ChannelColors(s.masters.ActiveChannels()),
		SelectedTaskID: s.selected,
	})
}

// Render отдаёт проекцию во view и сообщает контроллеру видимые группы и права.
// ctrl может быть nil.
func (s *Session) Render(view *timeline.View, ctrl *interaction.Controller) {
	p := s.Projection()

	if ctrl != nil {
		ctrl.SetGroups(s.VisibleChannels())
		ctrl.SetEditable(s.CanEdit())
	}
	view.Show(p, s.SelectedTaskID(), s.CanEdit())
}

func (s *Session) findTaskLocked(taskID string) (task.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == taskID && !t.IsDeleted() {
			return t, true
		}
	}
	return task.Task{}, false
}

func (s *Session) visibleChannelsLocked() []string {
	active := s.masters.ActiveChannels()
	if s.channelFilter == ChannelAll {
		return active
	}
	return slices.DeleteFunc(active, func(ch string) bool { return ch != s.channelFilter })
}

func (s *Session) inFilterLocked(channel string) bool {
	return s.channelFilter == ChannelAll || channel == s.channelFilter
}

func (s *Session) visibleTasksLocked() []task.Task {
	scoped := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.IsDeleted() || !s.inFilterLocked(t.Channel) {
			continue
		}
		scoped = append(scoped, t)
	}
	return sorting.SortTasks(scoped, s.masters.ActiveChannels())
}

func (s *Session) visibleReleasesLocked() []task.ReleaseDate {
	res := make([]task.ReleaseDate, 0, len(s.releases))
	for _, r := range s.releases {
		if s.inFilterLocked(r.Channel) {
			res = append(res, r)
		}
	}
	return res
}

func (s *Session) isVisibleLocked(taskID string) bool {
	t, ok := s.findTaskLocked(taskID)
	return ok && s.inFilterLocked(t.Channel)
}

// ensureSelectionLocked - выделена только видимая задача или ничего
func (s *Session) ensureSelectionLocked() {
	if s.selected != "" && !s.isVisibleLocked(s.selected) {
		logger.Debug("Session: Выделение снято", zap.String("task_id", s.selected))
		s.selected = ""
	}
}

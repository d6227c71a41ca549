package inmemory

import (
	"context"
	"fmt"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"
	repo "scheduleBoard/internal/repository"
	"sync"
	"time"

	"go.uber.org/zap"
)

type releaseKey struct {
	channel  string
	scriptNo string
}

// TaskStorage хранит копии записей, наружу тоже отдаются копии
type TaskStorage struct {
	storage  map[string]*task.Task
	ids      []string
	releases map[releaseKey]*task.ReleaseDate
	relKeys  []releaseKey
	mtx      *sync.RWMutex
	now      func() time.Time
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage:  make(map[string]*task.Task),
		ids:      []string{},
		releases: make(map[releaseKey]*task.ReleaseDate),
		relKeys:  []releaseKey{},
		mtx:      &sync.RWMutex{},
		now:      time.Now,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

// Create сохраняет задачу с version = 1
func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.ID]; ok {
		return fmt.Errorf("задача %s уже существует", taskToCreate.ID)
	}

	now := task.FormatTimestamp(s.now())
	taskToCreate.Version = 1
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = now
	taskToCreate.UpdatedBy = taskToCreate.CreatedBy
	taskToCreate.DeletedAt = ""

	stored := *taskToCreate
	s.storage[stored.ID] = &stored
	s.ids = append(s.ids, stored.ID)
	return nil
}

// Update - taskToUpdate.Version должна совпасть с хранимой, после записи она увеличивается
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.ID]
	if !ok || existing.IsDeleted() {
		return repo.ErrNotFound
	}
	if existing.Version != taskToUpdate.Version {
		logger.Warn("Конфликт версий при обновлении задачи",
			zap.String("task_id", taskToUpdate.ID),
			zap.Int("expected_version", taskToUpdate.Version),
			zap.Int("actual_version", existing.Version))
		return repo.ErrVersionConflict
	}

	taskToUpdate.Version++
	taskToUpdate.UpdatedAt = task.FormatTimestamp(s.now())
	taskToUpdate.CreatedAt = existing.CreatedAt
	taskToUpdate.CreatedBy = existing.CreatedBy

	stored := *taskToUpdate
	s.storage[stored.ID] = &stored
	return nil
}

// GetByID отдаёт и мягко удалённые задачи, решение принимает сервис
func (s *TaskStorage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *taskToGet
	return &res, nil
}

// List - все неудалённые задачи в порядке создания
func (s *TaskStorage) List(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if t.IsDeleted() {
			continue
		}
		cp := *t
		res = append(res, &cp)
	}
	return res, nil
}

// мягкое удаление с проверкой версии
func (s *TaskStorage) DeleteSoft(ctx context.Context, taskToDelete *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToDelete.ID]
	if !ok || existing.IsDeleted() {
		return repo.ErrNotFound
	}
	if existing.Version != taskToDelete.Version {
		logger.Warn("Конфликт версий при мягком удалении",
			zap.String("task_id", taskToDelete.ID),
			zap.Int("expected_version", taskToDelete.Version))
		return repo.ErrVersionConflict
	}

	existing.MarkDeleted(taskToDelete.UpdatedBy, s.now())
	existing.Version++

	*taskToDelete = *existing
	return nil
}

// полное удаление
func (s *TaskStorage) DeleteFull(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// GetDeletedBefore - мягко удалённые раньше deadline, не больше limit
func (s *TaskStorage) GetDeletedBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var tasks []*task.Task
	for _, id := range s.ids {
		if len(tasks) >= limit {
			break
		}
		t := s.storage[id]
		if t.DeletedBefore(deadline) {
			cp := *t
			tasks = append(tasks, &cp)
		}
	}
	return tasks, nil
}

func (s *TaskStorage) ListReleaseDates(ctx context.Context) ([]*task.ReleaseDate, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.ReleaseDate, 0, len(s.relKeys))
	for _, key := range s.relKeys {
		cp := *s.releases[key]
		res = append(res, &cp)
	}
	return res, nil
}

// UpsertReleaseDate - ключ записи (channel, script_no)
func (s *TaskStorage) UpsertReleaseDate(ctx context.Context, release *task.ReleaseDate) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	release.UpdatedAt = task.FormatTimestamp(s.now())

	key := releaseKey{channel: release.Channel, scriptNo: release.ScriptNo}
	if _, ok := s.releases[key]; !ok {
		s.relKeys = append(s.relKeys, key)
	}
	stored := *release
	s.releases[key] = &stored
	return nil
}

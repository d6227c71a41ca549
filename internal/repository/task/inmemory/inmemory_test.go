package inmemory_test

import (
	"context"
	"fmt"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/repository"
	"scheduleBoard/internal/repository/task/inmemory"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(channel string) *task.Task {
	return &task.Task{
		ID:        uuid.NewString(),
		Status:    "Todo",
		Channel:   channel,
		Assignee:  "sato",
		ScriptNo:  "12",
		TaskType:  "Script",
		TaskName:  "Test Task",
		StartDate: "2024-06-01",
		EndDate:   "2024-06-03",
		CreatedBy: "sato@example.com",
	}
}

// TestTaskStorage_HealthCheck тестирует проверку здоровья
func TestTaskStorage_HealthCheck(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_Create тестирует создание задачи
func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("TV")
	require.NoError(t, storage.Create(ctx, taskToCreate))

	assert.Equal(t, 1, taskToCreate.Version)
	assert.NotEmpty(t, taskToCreate.CreatedAt)
	assert.Equal(t, "sato@example.com", taskToCreate.UpdatedBy)

	retrieved, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)
	assert.Equal(t, *taskToCreate, *retrieved)

	assert.Error(t, storage.Create(ctx, taskToCreate), "duplicate id")
}

// TestTaskStorage_ReturnsCopies - изменение полученной записи не меняет хранилище
func TestTaskStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	created := newTask("TV")
	require.NoError(t, storage.Create(ctx, created))

	got, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	got.TaskName = "changed"

	again, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", again.TaskName)
}

// TestTaskStorage_GetByID_NotFound тестирует отсутствующую задачу
func TestTaskStorage_GetByID_NotFound(t *testing.T) {
	_, err := inmemory.NewTaskStorage().GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_Update тестирует обновление с проверкой версии
func TestTaskStorage_Update(t *testing.T) {
	tests := []struct {
		name      string
		version   int
		deleteIt  bool
		wantErr   error
		wantAfter int
	}{
		{name: "matching version", version: 1, wantAfter: 2},
		{name: "stale version", version: 0, wantErr: repository.ErrVersionConflict, wantAfter: 1},
		{name: "future version", version: 7, wantErr: repository.ErrVersionConflict, wantAfter: 1},
		{name: "deleted task", version: 2, deleteIt: true, wantErr: repository.ErrNotFound, wantAfter: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			storage := inmemory.NewTaskStorage()
			created := newTask("TV")
			require.NoError(t, storage.Create(ctx, created))

			if tt.deleteIt {
				toDelete := *created
				require.NoError(t, storage.DeleteSoft(ctx, &toDelete))
			}

			update := *created
			update.Version = tt.version
			update.TaskName = "Renamed"
			err := storage.Update(ctx, &update)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAfter, update.Version)
			}

			stored, err := storage.GetByID(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAfter, stored.Version)
			if tt.wantErr == nil {
				assert.Equal(t, "Renamed", stored.TaskName)
				assert.Equal(t, created.CreatedAt, stored.CreatedAt)
			}
		})
	}
}

// TestTaskStorage_DeleteSoft тестирует мягкое удаление
func TestTaskStorage_DeleteSoft(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	kept := newTask("TV")
	removed := newTask("TV")
	require.NoError(t, storage.Create(ctx, kept))
	require.NoError(t, storage.Create(ctx, removed))

	stale := *removed
	stale.Version = 3
	assert.ErrorIs(t, storage.DeleteSoft(ctx, &stale), repository.ErrVersionConflict)

	toDelete := *removed
	toDelete.UpdatedBy = "kato@example.com"
	require.NoError(t, storage.DeleteSoft(ctx, &toDelete))
	assert.True(t, toDelete.IsDeleted())
	assert.Equal(t, 2, toDelete.Version)
	assert.Equal(t, "kato@example.com", toDelete.UpdatedBy)

	list, err := storage.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	again := toDelete
	assert.ErrorIs(t, storage.DeleteSoft(ctx, &again), repository.ErrNotFound)
}

// TestTaskStorage_PurgeFlow тестирует выборку удалённых и полное удаление
func TestTaskStorage_PurgeFlow(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	for i := 0; i < 3; i++ {
		created := newTask("TV")
		require.NoError(t, storage.Create(ctx, created))
		require.NoError(t, storage.DeleteSoft(ctx, created))
	}
	require.NoError(t, storage.Create(ctx, newTask("TV")))

	none, err := storage.GetDeletedBefore(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	deleted, err := storage.GetDeletedBefore(ctx, time.Now().Add(time.Hour), 2)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	for _, d := range deleted {
		require.NoError(t, storage.DeleteFull(ctx, d.ID))
		_, err := storage.GetByID(ctx, d.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}

	rest, err := storage.GetDeletedBefore(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

// TestTaskStorage_ReleaseDates тестирует upsert по (channel, script_no)
func TestTaskStorage_ReleaseDates(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	require.NoError(t, storage.UpsertReleaseDate(ctx, &task.ReleaseDate{Channel: "TV", ScriptNo: "1", ReleaseDate: "2024-06-10"}))
	require.NoError(t, storage.UpsertReleaseDate(ctx, &task.ReleaseDate{Channel: "TV", ScriptNo: "2", ReleaseDate: "2024-06-17"}))
	require.NoError(t, storage.UpsertReleaseDate(ctx, &task.ReleaseDate{Channel: "TV", ScriptNo: "1", ReleaseDate: "2024-06-11"}))

	list, err := storage.ListReleaseDates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-06-11", list[0].ReleaseDate)
	assert.NotEmpty(t, list[0].UpdatedAt)
	assert.Equal(t, "2", list[1].ScriptNo)
}

// TestTaskStorage_ConcurrentUpdates - из параллельных обновлений одной версии проходит ровно одно
func TestTaskStorage_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	created := newTask("TV")
	require.NoError(t, storage.Create(ctx, created))

	const workers = 20
	var wg sync.WaitGroup
	var mtx sync.Mutex
	succeeded, conflicts := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			update := *created
			update.TaskName = fmt.Sprintf("writer %d", i)
			err := storage.Update(ctx, &update)

			mtx.Lock()
			defer mtx.Unlock()
			if err == nil {
				succeeded++
			} else if err == repository.ErrVersionConflict {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

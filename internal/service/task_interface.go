package service

import (
	"context"
	"scheduleBoard/internal/models/task"
	"time"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, string) (*task.Task, error)
	List(context.Context) ([]*task.Task, error)
	DeleteSoft(context.Context, *task.Task) error
	DeleteFull(context.Context, string) error
	GetDeletedBefore(context.Context, time.Time, int) ([]*task.Task, error)
}

type ReleaseDateRepository interface {
	ListReleaseDates(context.Context) ([]*task.ReleaseDate, error)
	UpsertReleaseDate(context.Context, *task.ReleaseDate) error
}

// Repository - оба хранилища реализуют его целиком
type Repository interface {
	TaskRepository
	ReleaseDateRepository
}

type RepoType string

const InMemoryType RepoType = "inmemory"
const DBType RepoType = "postgres"

// Actor - кто выполняет действие
type Actor struct {
	Email string
	Role  task.Role
}

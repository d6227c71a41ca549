package handlers

import (
	"context"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/service"
)

// Service - то, что обработчик RPC ждёт от слоя бизнес-логики
type Service interface {
	HealthCheck(context.Context) error
	Bootstrap(context.Context, service.Actor) task.Bootstrap
	ListTasks(context.Context) ([]task.Task, error)
	ListReleaseDates(context.Context) ([]task.ReleaseDate, error)
	CreateTask(context.Context, service.Actor, task.TaskDraft) (task.Task, error)
	UpdateTask(context.Context, service.Actor, string, int, task.TaskPatch) (task.Task, error)
	DeleteTask(context.Context, service.Actor, string, int) (string, error)
	UpsertReleaseDate(ctx context.Context, actor service.Actor, channel, scriptNo, releaseDate string) (task.ReleaseDate, error)
}

var _ Service = (*service.ScheduleService)(nil)

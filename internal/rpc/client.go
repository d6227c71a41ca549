package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"

	"go.uber.org/zap"
)

// Client - типизированные вызовы поверх Invoker.
// Мутации update/delete несут последнюю увиденную версию; create версии не несёт.
// Клиент сам ничего не повторяет: реакция на CONFLICT - забота владельца снимка (session).
type Client struct {
	invoker Invoker
}

func NewClient(invoker Invoker) *Client {
	return &Client{invoker: invoker}
}

func call[T any](ctx context.Context, c *Client, action string, payload any) (T, error) {
	var zero T

	env, err := c.invoker.Invoke(ctx, action, payload)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return zero, rpcErr
		}
		return zero, NewError(CodeInternal, err.Error())
	}
	if env == nil {
		return zero, NewError(CodeInternal, "пустой ответ")
	}

	if !env.OK {
		if env.Error == nil {
			return zero, NewError(CodeInternal, "Request failed")
		}
		logger.Info("RPC: Вызов завершился ошибкой",
			zap.String("action", action),
			zap.String("code", string(env.Error.Code)),
			zap.String("message", env.Error.Message))
		return zero, env.Error
	}

	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return zero, NewError(CodeInternal, "Missing response data")
	}

	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return zero, NewError(CodeInternal, fmt.Sprintf("не удалось разобрать данные %s: %s", action, Preview(env.Data)))
	}
	return data, nil
}

func (c *Client) Bootstrap(ctx context.Context) (task.Bootstrap, error) {
	return call[task.Bootstrap](ctx, c, ActionBootstrap, struct{}{})
}

func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	return call[[]task.Task](ctx, c, ActionTasksList, struct{}{})
}

func (c *Client) ListReleaseDates(ctx context.Context) ([]task.ReleaseDate, error) {
	return call[[]task.ReleaseDate](ctx, c, ActionReleaseDatesList, struct{}{})
}

// CreateTask - версия не передаётся, сервер выдаёт version = 1
func (c *Client) CreateTask(ctx context.Context, draft task.TaskDraft) (task.Task, error) {
	return call[task.Task](ctx, c, ActionTasksCreate, CreateTaskPayload{Task: draft})
}

func (c *Client) UpdateTask(ctx context.Context, id string, version int, patch task.TaskPatch) (task.Task, error) {
	return call[task.Task](ctx, c, ActionTasksUpdate, UpdateTaskPayload{ID: id, Version: version, Task: patch})
}

func (c *Client) DeleteTask(ctx context.Context, id string, version int) (string, error) {
	deleted, err := call[DeletedTask](ctx, c, ActionTasksDelete, DeleteTaskPayload{ID: id, Version: version})
	if err != nil {
		return "", err
	}
	return deleted.ID, nil
}

func (c *Client) UpsertReleaseDate(ctx context.Context, channel, scriptNo, releaseDate string) (task.ReleaseDate, error) {
	return call[task.ReleaseDate](ctx, c, ActionReleaseDatesUpsert, UpsertReleaseDatePayload{
		Channel:     channel,
		ScriptNo:    scriptNo,
		ReleaseDate: releaseDate,
	})
}

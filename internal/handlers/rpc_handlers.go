package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/middleware"
	"scheduleBoard/internal/rpc"
	"scheduleBoard/internal/service"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type actionFunc func(ctx context.Context, actor service.Actor, payload json.RawMessage) (any, error)

type RPCHandler struct {
	Service Service
	actions map[string]actionFunc
}

func NewRPCHandler(svc Service) *RPCHandler {
	h := &RPCHandler{Service: svc}
	h.actions = map[string]actionFunc{
		rpc.ActionBootstrap:          h.bootstrap,
		rpc.ActionTasksList:          h.listTasks,
		rpc.ActionReleaseDatesList:   h.listReleaseDates,
		rpc.ActionTasksCreate:        h.createTask,
		rpc.ActionTasksUpdate:        h.updateTask,
		rpc.ActionTasksDelete:        h.deleteTask,
		rpc.ActionReleaseDatesUpsert: h.upsertReleaseDate,
	}
	return h
}

func (h *RPCHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.Service.HealthCheck(r.Context()); err != nil {
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "schedule-board"),
			toPayload("error", err.Error()),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "schedule-board"),
		toPayload("time", time.Now().UTC().Format(time.RFC3339)),
	)
}

// Dispatch - POST /rpc: {action, payload, requestId} -> {ok, data, error}
func (h *RPCHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if r.Method != http.MethodPost {
		logger.Warn("HTTP: Неверный метод",
			zap.String("expected", "POST"),
			zap.String("received", r.Method),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusMethodNotAllowed, rpc.CodeValidation, "разрешён только POST метод")
		return
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, rpc.CodeValidation, "Content-Type должен быть application/json")
		return
	}

	var request rpc.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, rpc.CodeValidation, "неверное тело запроса: "+err.Error())
		return
	}

	action := strings.TrimSpace(request.Action)
	handle, ok := h.actions[action]
	if !ok {
		logger.Warn("HTTP: Неизвестное действие",
			zap.String("action", action),
			zap.String("rpc_request_id", request.RequestID))

		responseWithError(w, http.StatusBadRequest, rpc.CodeValidation, "неизвестное действие: "+action, "action")
		return
	}

	actor := middleware.GetActor(r.Context())
	data, err := handle(r.Context(), actor, request.Payload)
	if err != nil {
		handleBusinessError(w, action, err)
		return
	}

	env, err := rpc.Success(data)
	if err != nil {
		handleBusinessError(w, action, service.NewInternal("кодирование ответа", err))
		return
	}

	logger.Info("HTTP_OUT: Действие выполнено",
		zap.String("action", action),
		zap.String("rpc_request_id", request.RequestID),
		zap.String("email", actor.Email),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithEnvelope(w, http.StatusOK, env)
}

func (h *RPCHandler) bootstrap(ctx context.Context, actor service.Actor, _ json.RawMessage) (any, error) {
	return h.Service.Bootstrap(ctx, actor), nil
}

func (h *RPCHandler) listTasks(ctx context.Context, _ service.Actor, _ json.RawMessage) (any, error) {
	return h.Service.ListTasks(ctx)
}

func (h *RPCHandler) listReleaseDates(ctx context.Context, _ service.Actor, _ json.RawMessage) (any, error) {
	return h.Service.ListReleaseDates(ctx)
}

func (h *RPCHandler) createTask(ctx context.Context, actor service.Actor, raw json.RawMessage) (any, error) {
	var p rpc.CreateTaskPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	return h.Service.CreateTask(ctx, actor, p.Task)
}

func (h *RPCHandler) updateTask(ctx context.Context, actor service.Actor, raw json.RawMessage) (any, error) {
	var p rpc.UpdateTaskPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	if err := requireID(p.ID); err != nil {
		return nil, err
	}
	return h.Service.UpdateTask(ctx, actor, p.ID, p.Version, p.Task)
}

func (h *RPCHandler) deleteTask(ctx context.Context, actor service.Actor, raw json.RawMessage) (any, error) {
	var p rpc.DeleteTaskPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	if err := requireID(p.ID); err != nil {
		return nil, err
	}

	id, err := h.Service.DeleteTask(ctx, actor, p.ID, p.Version)
	if err != nil {
		return nil, err
	}
	return rpc.DeletedTask{ID: id}, nil
}

func (h *RPCHandler) upsertReleaseDate(ctx context.Context, actor service.Actor, raw json.RawMessage) (any, error) {
	var p rpc.UpsertReleaseDatePayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	return h.Service.UpsertReleaseDate(ctx, actor, p.Channel, p.ScriptNo, p.ReleaseDate)
}

// Invoke выполняет действие в процессе, без HTTP. Пользователь берётся из ctx (middleware.WithActor).
func (h *RPCHandler) Invoke(ctx context.Context, action string, payload any) (*rpc.Envelope, error) {
	handle, ok := h.actions[action]
	if !ok {
		return rpc.Failure(rpc.CodeValidation, "неизвестное действие: "+action, "action"), nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, rpc.NewError(rpc.CodeInternal, "кодирование запроса: "+err.Error())
	}

	data, err := handle(ctx, middleware.GetActor(ctx), raw)
	if err != nil {
		busErr := service.AsBusinessError(err)
		return rpc.Failure(rpc.Code(busErr.Code), busErr.Message, busErr.Fields...), nil
	}
	return rpc.Success(data)
}

var _ rpc.Invoker = (*RPCHandler)(nil)

package session

import (
	"context"
	"errors"
	"scheduleBoard/internal/calendar"
	"scheduleBoard/internal/interaction"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/rpc"
	"strings"

	"go.uber.org/zap"
)

// ErrTaskBusy - по задаче уже выполняется изменение
var ErrTaskBusy = errors.New("по задаче уже выполняется изменение")

// ErrTaskNotInSnapshot - задачи нет в текущем снимке
var ErrTaskNotInSnapshot = errors.New("задача не найдена в снимке")

// Create создаёт задачу. Черновик проверяется до вызова, VALIDATION возвращается без уведомления.
func (s *Session) Create(ctx context.Context, draft task.TaskDraft) (task.Task, error) {
	if err := s.requireEditor(); err != nil {
		return task.Task{}, s.fail(ctx, rpc.ActionTasksCreate, "", err)
	}
	if err := ValidateDraft(draft); err != nil {
		return task.Task{}, err
	}

	created, err := s.remote.CreateTask(ctx, draft)
	if err != nil {
		return task.Task{}, s.fail(ctx, rpc.ActionTasksCreate, "", err)
	}

	logger.Info("Session: Задача создана",
		zap.String("task_id", created.ID),
		zap.String("channel", created.Channel))

	s.refreshAfter(ctx)
	return created, nil
}

// Update сохраняет форму редактирования. version - версия, с которой форма была открыта (EditDraft).
func (s *Session) Update(ctx context.Context, taskID string, version int, draft task.TaskDraft) (task.Task, error) {
	if err := s.requireEditor(); err != nil {
		return task.Task{}, s.fail(ctx, rpc.ActionTasksUpdate, taskID, err)
	}
	if err := ValidateDraft(draft); err != nil {
		return task.Task{}, err
	}
	if !s.acquire(taskID) {
		return task.Task{}, ErrTaskBusy
	}
	defer s.release(taskID)

	updated, err := s.remote.UpdateTask(ctx, taskID, version, task.PatchFromDraft(draft))
	if err != nil {
		return task.Task{}, s.fail(ctx, rpc.ActionTasksUpdate, taskID, err)
	}

	logger.Info("Session: Задача обновлена",
		zap.String("task_id", updated.ID),
		zap.Int("version", updated.Version))

	s.refreshAfter(ctx)
	return updated, nil
}

// Delete удаляет задачу с версией из снимка и снимает с неё выделение
func (s *Session) Delete(ctx context.Context, taskID string) error {
	if err := s.requireEditor(); err != nil {
		return s.fail(ctx, rpc.ActionTasksDelete, taskID, err)
	}

	target, ok := s.Task(taskID)
	if !ok {
		return ErrTaskNotInSnapshot
	}
	if !s.acquire(taskID) {
		return ErrTaskBusy
	}
	defer s.release(taskID)

	if _, err := s.remote.DeleteTask(ctx, target.ID, target.Version); err != nil {
		return s.fail(ctx, rpc.ActionTasksDelete, taskID, err)
	}

	logger.Info("Session: Задача удалена", zap.String("task_id", taskID))

	s.refreshAfter(ctx)

	s.mtx.Lock()
	if s.selected == taskID {
		s.selected = ""
	}
	s.mtx.Unlock()
	return nil
}

// MoveTask - исполнитель перемещений для interaction.Controller.
// Отправляет только даты и версию из снимка. Ошибка означает откат на поверхности,
// уведомление к этому моменту уже показано, повторного не будет.
func (s *Session) MoveTask(ctx context.Context, intent interaction.MoveIntent) error {
	if err := s.requireEditor(); err != nil {
		return s.fail(ctx, rpc.ActionTasksUpdate, intent.TaskID, err)
	}

	target, ok := s.Task(intent.TaskID)
	if !ok {
		logger.Warn("Session: Перемещаемой задачи нет в снимке", zap.String("task_id", intent.TaskID))
		return ErrTaskNotInSnapshot
	}
	if !s.acquire(intent.TaskID) {
		return ErrTaskBusy
	}
	defer s.release(intent.TaskID)

	moved, err := s.remote.UpdateTask(ctx, target.ID, target.Version, task.DatePatch(intent.StartDate, intent.EndDate))
	if err != nil {
		return s.fail(ctx, rpc.ActionTasksUpdate, intent.TaskID, err)
	}

	logger.Info("Session: Задача перемещена",
		zap.String("task_id", moved.ID),
		zap.String("start_date", moved.StartDate),
		zap.String("end_date", moved.EndDate),
		zap.Int("version", moved.Version))

	s.refreshAfter(ctx)
	return nil
}

// UpsertReleaseDate - канал, номер сценария и дата обязательны
func (s *Session) UpsertReleaseDate(ctx context.Context, channel, scriptNo, releaseDate string) (task.ReleaseDate, error) {
	channel = strings.TrimSpace(channel)
	scriptNo = strings.TrimSpace(scriptNo)
	releaseDate = strings.TrimSpace(releaseDate)

	if err := s.requireEditor(); err != nil {
		return task.ReleaseDate{}, s.fail(ctx, rpc.ActionReleaseDatesUpsert, "", err)
	}

	missing := []string{}
	if channel == "" {
		missing = append(missing, "channel")
	}
	if scriptNo == "" {
		missing = append(missing, "script_no")
	}
	if releaseDate == "" {
		missing = append(missing, "release_date")
	}
	if len(missing) > 0 {
		s.notifier.Notify(NoticeBanner, msgReleaseFields)
		return task.ReleaseDate{}, rpc.NewError(rpc.CodeValidation, msgReleaseFields, missing...)
	}
	if !calendar.ValidDay(releaseDate) {
		return task.ReleaseDate{}, rpc.NewError(rpc.CodeValidation, "Дата должна быть в формате YYYY-MM-DD", "release_date")
	}

	saved, err := s.remote.UpsertReleaseDate(ctx, channel, scriptNo, releaseDate)
	if err != nil {
		return task.ReleaseDate{}, s.fail(ctx, rpc.ActionReleaseDatesUpsert, "", err)
	}

	logger.Info("Session: Дата релиза сохранена",
		zap.String("channel", saved.Channel),
		zap.String("script_no", saved.ScriptNo),
		zap.String("release_date", saved.ReleaseDate))

	s.refreshAfter(ctx)
	return saved, nil
}

// fail применяет политику ошибок и возвращает исходную ошибку.
// CONFLICT и NOT_FOUND: уведомление и безусловное перечитывание, без повтора мутации.
// FORBIDDEN: блокирующее уведомление. VALIDATION возвращается вызывающему.
func (s *Session) fail(ctx context.Context, action, taskID string, err error) error {
	code := rpc.CodeOf(err)
	logger.Warn("Session: Мутация отклонена",
		zap.String("action", action),
		zap.String("task_id", taskID),
		zap.String("code", string(code)),
		zap.Error(err))

	switch code {
	case rpc.CodeConflict:
		s.notifier.Notify(NoticeBanner, msgConflict)
		s.refreshAfter(ctx)
	case rpc.CodeNotFound:
		s.notifier.Notify(NoticeBanner, msgNotFound)
		s.refreshAfter(ctx)
	case rpc.CodeForbidden:
		s.notifier.Notify(NoticeAlert, msgForbidden)
	case rpc.CodeValidation:
	default:
		s.notifier.Notify(NoticeBanner, errorMessage(err))
	}
	return err
}

// refreshAfter - ошибка перечитывания не отменяет уже выполненную мутацию
func (s *Session) refreshAfter(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.notifier.Notify(NoticeBanner, msgRefreshFailed+errorMessage(err))
	}
}

func (s *Session) requireEditor() error {
	if !s.CanEdit() {
		return rpc.NewError(rpc.CodeForbidden, msgForbidden)
	}
	return nil
}

func (s *Session) acquire(taskID string) bool {
	s.busyMtx.Lock()
	defer s.busyMtx.Unlock()

	if _, ok := s.busy[taskID]; ok {
		return false
	}
	s.busy[taskID] = struct{}{}
	return true
}

func (s *Session) release(taskID string) {
	s.busyMtx.Lock()
	defer s.busyMtx.Unlock()

	delete(s.busy, taskID)
}

func errorMessage(err error) string {
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Message
	}
	return err.Error()
}

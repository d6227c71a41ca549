package service

import (
	"context"
	"errors"
	"fmt"
	"scheduleBoard/internal/calendar"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"
	rep "scheduleBoard/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type ScheduleService struct {
	repo     Repository
	masters  task.MasterData
	repoType RepoType
	newID    func() string
	now      func() time.Time
}

func NewScheduleService(repo Repository, masters task.MasterData, repoType RepoType, opts ...ServiceOption) *ScheduleService {
	s := &ScheduleService{
		repo:     repo,
		masters:  masters,
		repoType: repoType,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ScheduleService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Хранилище недоступно", err, zap.String("repo_type", string(s.repoType)))
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// Bootstrap - роль, почта и справочники для клиента
func (s *ScheduleService) Bootstrap(ctx context.Context, actor Actor) task.Bootstrap {
	return task.Bootstrap{
		Role:    actor.Role,
		Email:   actor.Email,
		Masters: s.masters,
	}
}

func (s *ScheduleService) ListTasks(ctx context.Context) ([]task.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, NewInternal("получение задач", err)
	}

	res := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, *t)
	}
	return res, nil
}

func (s *ScheduleService) ListReleaseDates(ctx context.Context) ([]task.ReleaseDate, error) {
	releases, err := s.repo.ListReleaseDates(ctx)
	if err != nil {
		return nil, NewInternal("получение дат релиза", err)
	}

	res := make([]task.ReleaseDate, 0, len(releases))
	for _, r := range releases {
		res = append(res, *r)
	}
	return res, nil
}

func (s *ScheduleService) CreateTask(ctx context.Context, actor Actor, draft task.TaskDraft) (task.Task, error) {
	if !actor.Role.CanEdit() {
		return task.Task{}, NewForbidden(actor.Email)
	}
	if err := s.validateDraft(draft, allFields); err != nil {
		return task.Task{}, err
	}

	created := &task.Task{
		ID:        s.newID(),
		CreatedBy: actor.Email,
	}
	created.ApplyDraft(draft)

	if err := s.repo.Create(ctx, created); err != nil {
		return task.Task{}, NewInternal("добавление задачи", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", created.ID),
		zap.String("channel", created.Channel),
		zap.String("by", actor.Email))
	return *created, nil
}

// UpdateTask применяет частичный патч к версии version.
// Справочники проверяются только для изменённых полей, чтобы старые задачи на выключенных каналах можно было двигать.
func (s *ScheduleService) UpdateTask(ctx context.Context, actor Actor, id string, version int, patch task.TaskPatch) (task.Task, error) {
	if !actor.Role.CanEdit() {
		return task.Task{}, NewForbidden(actor.Email)
	}
	if patch.IsEmpty() {
		return task.Task{}, NewValidationError("нет полей для обновления", "task")
	}
	if version < 1 {
		return task.Task{}, NewValidationError("версия обязательна", "version")
	}

	existing, err := s.getLive(ctx, id)
	if err != nil {
		return task.Task{}, err
	}

	merged := existing.Draft().Apply(patch.Options()...)
	if err := s.validateDraft(merged, changedFields(patch)); err != nil {
		return task.Task{}, err
	}

	existing.ApplyDraft(merged)
	existing.Version = version
	existing.UpdatedBy = actor.Email

	if err := s.repo.Update(ctx, existing); err != nil {
		return task.Task{}, s.mapRepoError(err, id, version)
	}

	logger.Info("Service: Задача обновлена",
		zap.String("task_id", id),
		zap.Int("version", existing.Version),
		zap.String("by", actor.Email))
	return *existing, nil
}

// DeleteTask - мягкое удаление с проверкой версии
func (s *ScheduleService) DeleteTask(ctx context.Context, actor Actor, id string, version int) (string, error) {
	if !actor.Role.CanEdit() {
		return "", NewForbidden(actor.Email)
	}
	if version < 1 {
		return "", NewValidationError("версия обязательна", "version")
	}

	existing, err := s.getLive(ctx, id)
	if err != nil {
		return "", err
	}

	existing.Version = version
	existing.UpdatedBy = actor.Email
	if err := s.repo.DeleteSoft(ctx, existing); err != nil {
		return "", s.mapRepoError(err, id, version)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id), zap.String("by", actor.Email))
	return id, nil
}

func (s *ScheduleService) UpsertReleaseDate(ctx context.Context, actor Actor, channel, scriptNo, releaseDate string) (task.ReleaseDate, error) {
	if !actor.Role.CanEdit() {
		return task.ReleaseDate{}, NewForbidden(actor.Email)
	}

	release := &task.ReleaseDate{
		Channel:     strings.TrimSpace(channel),
		ScriptNo:    strings.TrimSpace(scriptNo),
		ReleaseDate: strings.TrimSpace(releaseDate),
		UpdatedBy:   actor.Email,
	}

	missing := []string{}
	if release.Channel == "" {
		missing = append(missing, "channel")
	}
	if release.ScriptNo == "" {
		missing = append(missing, "script_no")
	}
	if release.ReleaseDate == "" {
		missing = append(missing, "release_date")
	}
	if len(missing) > 0 {
		return task.ReleaseDate{}, NewValidationError("обязательные поля не заполнены", missing...)
	}
	if !calendar.ValidDay(release.ReleaseDate) {
		return task.ReleaseDate{}, NewValidationError("дата должна быть в формате YYYY-MM-DD", "release_date")
	}
	if !s.masters.HasChannel(release.Channel) {
		return task.ReleaseDate{}, NewValidationError("неизвестный канал", "channel")
	}

	if err := s.repo.UpsertReleaseDate(ctx, release); err != nil {
		return task.ReleaseDate{}, NewInternal("сохранение даты релиза", err)
	}

	logger.Info("Service: Дата релиза сохранена",
		zap.String("channel", release.Channel),
		zap.String("script_no", release.ScriptNo),
		zap.String("release_date", release.ReleaseDate))
	return *release, nil
}

// PurgeDeleted окончательно удаляет задачи, мягко удалённые раньше чем retention назад
func (s *ScheduleService) PurgeDeleted(ctx context.Context, retention time.Duration, limit int) (int, error) {
	deadline := s.now().Add(-retention)

	tasks, err := s.repo.GetDeletedBefore(ctx, deadline, limit)
	if err != nil {
		return 0, fmt.Errorf("получение удалённых задач: %w", err)
	}

	purged := 0
	for _, t := range tasks {
		if err := s.repo.DeleteFull(ctx, t.ID); err != nil {
			logger.Warn("Service: Не удалось окончательно удалить задачу", zap.String("task_id", t.ID), zap.Error(err))
			continue
		}
		purged++
	}
	return purged, nil
}

// getLive - задача существует и не удалена; неверный id тоже означает NOT_FOUND
func (s *ScheduleService) getLive(ctx context.Context, id string) (*task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, NewNotFound("задача", id)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id))
			return nil, NewNotFound("задача", id)
		}
		return nil, NewInternal("получение задачи", err)
	}
	if existing.IsDeleted() {
		return nil, NewNotFound("задача", id)
	}
	return existing, nil
}

func (s *ScheduleService) mapRepoError(err error, id string, version int) error {
	switch {
	case errors.Is(err, rep.ErrVersionConflict):
		return NewConflict(id, version)
	case errors.Is(err, rep.ErrNotFound):
		return NewNotFound("задача", id)
	}
	return NewInternal("запись задачи", err)
}

var allFields = map[string]bool{
	"status": true, "channel": true, "task_type": true,
}

func changedFields(p task.TaskPatch) map[string]bool {
	return map[string]bool{
		"status":    p.Status != nil,
		"channel":   p.Channel != nil,
		"task_type": p.TaskType != nil,
	}
}

// validateDraft - все поля заполнены, даты корректны и упорядочены,
// значения справочников из checkMasters активны
func (s *ScheduleService) validateDraft(d task.TaskDraft, checkMasters map[string]bool) error {
	missing := []string{}
	for _, f := range d.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Key)
		}
	}
	if len(missing) > 0 {
		return NewValidationError("обязательные поля не заполнены", missing...)
	}

	invalid := []string{}
	if !calendar.ValidDay(d.StartDate) {
		invalid = append(invalid, "start_date")
	}
	if !calendar.ValidDay(d.EndDate) {
		invalid = append(invalid, "end_date")
	}
	if len(invalid) > 0 {
		return NewValidationError("дата должна быть в формате YYYY-MM-DD", invalid...)
	}
	if d.StartDate > d.EndDate {
		return NewValidationError("дата начала позже даты окончания", "start_date", "end_date")
	}

	unknown := []string{}
	if checkMasters["status"] && !s.masters.HasStatus(d.Status) {
		unknown = append(unknown, "status")
	}
	if checkMasters["channel"] && !s.masters.HasChannel(d.Channel) {
		unknown = append(unknown, "channel")
	}
	if checkMasters["task_type"] && !s.masters.HasTaskType(d.TaskType) {
		unknown = append(unknown, "task_type")
	}
	if len(unknown) > 0 {
		return NewValidationError("значение не из справочника", unknown...)
	}
	return nil
}

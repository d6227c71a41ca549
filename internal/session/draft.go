package session

import (
	"scheduleBoard/internal/calendar"
	"scheduleBoard/internal/interaction"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/rpc"
	"strings"
)

// DefaultDraft - черновик новой задачи: первые активные статус, тип и канал по sort_order,
// исполнитель - локальная часть почты, даты - сегодня.
// Явно выбранный канал побеждает, если это не ALL.
func DefaultDraft(masters task.MasterData, email, channel, today string) task.TaskDraft {
	d := task.TaskDraft{
		Assignee:  strings.SplitN(email, "@", 2)[0],
		StartDate: today,
		EndDate:   today,
	}

	if statuses := masters.ActiveStatuses(); len(statuses) > 0 {
		d.Status = statuses[0]
	}
	if types := masters.ActiveTaskTypes(); len(types) > 0 {
		d.TaskType = types[0]
	}

	if channel != "" && channel != ChannelAll {
		d.Channel = channel
	} else if channels := masters.ActiveChannels(); len(channels) > 0 {
		d.Channel = channels[0]
	}

	return d
}

// NewDraft строит черновик по данным сессии и применяет опции поверх
func (s *Session) NewDraft(opts ...task.TaskOption) task.TaskDraft {
	s.mtx.RLock()
	d := DefaultDraft(s.masters, s.email, s.channelFilter, calendar.Today(s.now()))
	s.mtx.RUnlock()

	return d.Apply(opts...)
}

// DraftForIntent - черновик для диапазона, выделенного протяжкой по таймлайну
func (s *Session) DraftForIntent(intent interaction.CreateIntent) task.TaskDraft {
	return s.NewDraft(
		task.WithChannel(intent.Channel),
		task.WithDates(intent.StartDate, intent.EndDate),
	)
}

// EditDraft - черновик и версия задачи для формы редактирования.
// Версию нужно передать в Update как есть, даже если снимок успел обновиться.
func (s *Session) EditDraft(taskID string) (task.TaskDraft, int, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.findTaskLocked(taskID)
	if !ok {
		return task.TaskDraft{}, 0, false
	}
	return t.Draft(), t.Version, true
}

// ValidateDraft - все поля обязательны, даты корректны и start_date <= end_date
func ValidateDraft(d task.TaskDraft) error {
	missing := []string{}
	for _, f := range d.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Key)
		}
	}
	if len(missing) > 0 {
		return rpc.NewError(rpc.CodeValidation, "Заполните обязательные поля", missing...)
	}

	invalid := []string{}
	if !calendar.ValidDay(d.StartDate) {
		invalid = append(invalid, "start_date")
	}
	if !calendar.ValidDay(d.EndDate) {
		invalid = append(invalid, "end_date")
	}
	if len(invalid) > 0 {
		return rpc.NewError(rpc.CodeValidation, "Дата должна быть в формате YYYY-MM-DD", invalid...)
	}

	if d.StartDate > d.EndDate {
		return rpc.NewError(rpc.CodeValidation, "Дата начала позже даты окончания", "start_date", "end_date")
	}
	return nil
}

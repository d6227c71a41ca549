// Package interaction превращает жесты на таймлайне в намерения создать или переместить задачу.
//
// Состояния: Idle и PendingCreate(group, startDay). Нажатие на пустой фон известной группы
// при разрешённом редактировании начинает создание, отпускание в той же группе на фоне
// выдаёт CreateIntent с упорядоченным диапазоном. Любое другое нажатие сбрасывает в Idle.
// Перемещение элемента - отдельный жест поверхности, он предварительный до ответа сервера.
package interaction

import (
	"context"
	"scheduleBoard/internal/calendar"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/timeline"
	"sync"

	"go.uber.org/zap"
)

type CreateIntent struct {
	Channel   string
	StartDate string
	EndDate   string
}

type MoveIntent struct {
	TaskID    string
	StartDate string
	EndDate   string
}

// Mover исполняет намерение перемещения (обычно session.Session)
type Mover interface {
	MoveTask(ctx context.Context, intent MoveIntent) error
}

type State int

const (
	StateIdle State = iota
	StatePendingCreate
)

func (s State) String() string {
	if s == StatePendingCreate {
		return "PendingCreate"
	}
	return "Idle"
}

type pendingCreate struct {
	group    string
	startDay string
}

type Controller struct {
	mtx      sync.Mutex
	canEdit  bool
	groups   map[string]struct{}
	pending  *pendingCreate
	inFlight map[string]struct{}

	mover    Mover
	onCreate func(CreateIntent)
	onSelect func(taskID string)
}

// NewController - onCreate и onSelect могут быть nil
func NewController(mover Mover, onCreate func(CreateIntent), onSelect func(taskID string)) *Controller {
	return &Controller{
		groups:   make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
		mover:    mover,
		onCreate: onCreate,
		onSelect: onSelect,
	}
}

var _ timeline.Handler = (*Controller)(nil)

// SetGroups задаёт известные группы (видимые каналы)
func (c *Controller) SetGroups(groups []string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.groups = make(map[string]struct{}, len(groups))
	for _, g := range groups {
		c.groups[g] = struct{}{}
	}
	if c.pending != nil {
		if _, ok := c.groups[c.pending.group]; !ok {
			c.pending = nil
		}
	}
}

// SetEditable - при выключении редактирования незаконченное создание отменяется
func (c *Controller) SetEditable(canEdit bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.canEdit = canEdit
	if !canEdit {
		c.pending = nil
	}
}

func (c *Controller) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.pending != nil {
		return StatePendingCreate
	}
	return StateIdle
}

// PointerDown - переход Idle -> PendingCreate только на пустом фоне известной группы
func (c *Controller) PointerDown(ev timeline.PointerEvent) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if !c.canEdit || ev.What != timeline.TargetBackground {
		c.pending = nil
		return
	}
	if _, ok := c.groups[ev.Group]; !ok {
		c.pending = nil
		return
	}

	c.pending = &pendingCreate{
		group:    ev.Group,
		startDay: calendar.FloorToDay(ev.Time),
	}
}

// PointerUp всегда возвращает в Idle; намерение есть только при отпускании на фоне той же группы
func (c *Controller) PointerUp(ev timeline.PointerEvent) (CreateIntent, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	pending := c.pending
	c.pending = nil

	if !c.canEdit || pending == nil {
		return CreateIntent{}, false
	}
	if ev.What != timeline.TargetBackground || ev.Group != pending.group {
		return CreateIntent{}, false
	}

	r := calendar.ClampRange(pending.startDay, calendar.FloorToDay(ev.Time))
	return CreateIntent{
		Channel:   pending.group,
		StartDate: r.Start,
		EndDate:   r.End,
	}, true
}

// MoveIntentFor переводит новый интервал поверхности (конец исключительный) во включительные дни
func (c *Controller) MoveIntentFor(move timeline.ItemMove) (MoveIntent, bool) {
	c.mtx.Lock()
	canEdit := c.canEdit
	c.mtx.Unlock()

	if !canEdit {
		return MoveIntent{}, false
	}
	taskID, ok := timeline.TaskIDFromItem(move.ItemID)
	if !ok {
		return MoveIntent{}, false
	}

	return MoveIntent{
		TaskID:    taskID,
		StartDate: calendar.FloorToDay(move.Start),
		EndDate:   calendar.FloorToDay(calendar.AddDays(move.End, -1)),
	}, true
}

// SelectedTaskID - выделение не задачи (релиз, фон) означает "ничего не выделено"
func SelectedTaskID(itemIDs []string) string {
	if len(itemIDs) == 0 {
		return ""
	}
	taskID, ok := timeline.TaskIDFromItem(itemIDs[0])
	if !ok {
		return ""
	}
	return taskID
}

func (c *Controller) OnSelect(itemIDs []string) {
	if c.onSelect != nil {
		c.onSelect(SelectedTaskID(itemIDs))
	}
}

func (c *Controller) OnBackgroundPress(ev timeline.PointerEvent) {
	c.PointerDown(ev)
}

func (c *Controller) OnBackgroundRelease(ev timeline.PointerEvent) {
	intent, ok := c.PointerUp(ev)
	if !ok {
		return
	}
	logger.Info("Interaction: Запрос на создание задачи",
		zap.String("channel", intent.Channel),
		zap.String("start_date", intent.StartDate),
		zap.String("end_date", intent.EndDate))

	if c.onCreate != nil {
		c.onCreate(intent)
	}
}

// OnItemMoveRequested - true: поверхность фиксирует перемещение, false: откатывает к прежнему положению.
// Пока перемещение задачи не завершено, повторное перемещение той же задачи откатывается без запроса.
func (c *Controller) OnItemMoveRequested(ctx context.Context, move timeline.ItemMove) bool {
	intent, ok := c.MoveIntentFor(move)
	if !ok {
		return false
	}

	if !c.acquire(intent.TaskID) {
		logger.Warn("Interaction: Перемещение отклонено, предыдущее ещё выполняется",
			zap.String("task_id", intent.TaskID))
		return false
	}
	defer c.release(intent.TaskID)

	if c.mover == nil {
		return false
	}

	if err := c.mover.MoveTask(ctx, intent); err != nil {
		logger.Info("Interaction: Перемещение не подтверждено, откат",
			zap.String("task_id", intent.TaskID), zap.Error(err))
		return false
	}
	return true
}

// InFlight - есть ли неподтверждённое перемещение задачи
func (c *Controller) InFlight(taskID string) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	_, ok := c.inFlight[taskID]
	return ok
}

func (c *Controller) acquire(taskID string) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, busy := c.inFlight[taskID]; busy {
		return false
	}
	c.inFlight[taskID] = struct{}{}
	return true
}

func (c *Controller) release(taskID string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	delete(c.inFlight, taskID)
}

// Package timeline строит элементы и группы таймлайна из задач и дат релиза.
//
// Проекция чистая: одни и те же входные данные всегда дают один и тот же результат,
// поэтому её можно пересчитывать целиком на каждое изменение без сравнения с прошлым состоянием.
package timeline

import (
	"scheduleBoard/internal/calendar"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"

	"go.uber.org/zap"
)

type Input struct {
	Channels       []string // видимые каналы в порядке отображения
	Tasks          []task.Task
	ReleaseDates   []task.ReleaseDate
	ChannelColors  map[string]string
	SelectedTaskID string
}

type Projection struct {
	Groups []Group
	Items  []Item
}

// Project - задачи и релизы на скрытых каналах выбрасываются целиком, а не прячутся
func Project(in Input) Projection {
	visible := make(map[string]struct{}, len(in.Channels))
	groups := make([]Group, 0, len(in.Channels))
	for _, ch := range in.Channels {
		if _, dup := visible[ch]; dup {
			continue
		}
		visible[ch] = struct{}{}
		groups = append(groups, Group{ID: ch, Content: ch})
	}

	items := make([]Item, 0, len(in.Tasks)+2*len(in.ReleaseDates))

	for _, t := range in.Tasks {
		if _, ok := visible[t.Channel]; !ok {
			continue
		}
		item, ok := taskItem(t, in.SelectedTaskID)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	for _, r := range in.ReleaseDates {
		if _, ok := visible[r.Channel]; !ok {
			continue
		}
		items = append(items, releaseItems(r, in.ChannelColors)...)
	}

	return Projection{Groups: groups, Items: items}
}

func taskItem(t task.Task, selectedID string) (Item, bool) {
	start, err := calendar.IntervalStart(t.StartDate)
	if err != nil {
		logger.Warn("Timeline: Задача с неверной датой начала пропущена",
			zap.String("task_id", t.ID), zap.String("start_date", t.StartDate))
		return Item{}, false
	}
	end, err := calendar.ExclusiveEnd(t.EndDate)
	if err != nil {
		logger.Warn("Timeline: Задача с неверной датой окончания пропущена",
			zap.String("task_id", t.ID), zap.String("end_date", t.EndDate))
		return Item{}, false
	}

	className := ClassTask
	if selectedID != "" && t.ID == selectedID {
		className = ClassTaskSelected
	}

	return Item{
		ID:         TaskItemID(t.ID),
		Kind:       KindTask,
		Type:       TypeRange,
		Group:      t.Channel,
		Start:      start,
		End:        &end,
		Content:    t.ScriptNo + " " + t.TaskName,
		Title:      t.TaskName + "\n" + t.Channel + " / " + t.Assignee,
		ClassName:  className,
		Selectable: true,
	}, true
}

// releaseItems - фон на весь день релиза и невыбираемая точка с номером сценария
func releaseItems(r task.ReleaseDate, colors map[string]string) []Item {
	start, err := calendar.IntervalStart(r.ReleaseDate)
	if err != nil {
		logger.Warn("Timeline: Релиз с неверной датой пропущен",
			zap.String("channel", r.Channel), zap.String("script_no", r.ScriptNo), zap.String("release_date", r.ReleaseDate))
		return nil
	}
	end := calendar.AddDays(start, 1)

	color, ok := colors[r.Channel]
	if !ok || color == "" {
		color = DefaultReleaseColor
	}

	return []Item{
		{
			ID:        releaseItemID(KindReleaseBackground, r.Channel, r.ScriptNo, r.ReleaseDate),
			Kind:      KindReleaseBackground,
			Type:      TypeBackground,
			Group:     r.Channel,
			Start:     start,
			End:       &end,
			ClassName: ClassReleaseBackground,
			Style:     "background: " + color + "33; border-left: 2px solid " + color + ";",
		},
		{
			ID:         releaseItemID(KindReleasePoint, r.Channel, r.ScriptNo, r.ReleaseDate),
			Kind:       KindReleasePoint,
			Type:       TypePoint,
			Group:      r.Channel,
			Start:      start,
			Content:    r.ScriptNo,
			ClassName:  ClassReleasePoint,
			Style:      "color:" + color,
			Selectable: false,
		},
	}
}

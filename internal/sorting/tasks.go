// Package sorting упорядочивает задачи для таблицы: приоритет канала, номер сценария, дата начала, имя.
package sorting

import (
	"scheduleBoard/internal/models/task"
	"slices"
)

// TaskOrder - сравнение задач с заранее построенным приоритетом каналов
type TaskOrder struct {
	priority map[string]int
}

// NewTaskOrder строит порядок из списка каналов (индекс = приоритет).
// Повторы в списке не меняют приоритет первого вхождения.
func NewTaskOrder(channelOrder []string) TaskOrder {
	priority := make(map[string]int, len(channelOrder))
	for i, ch := range channelOrder {
		if _, ok := priority[ch]; !ok {
			priority[ch] = i
		}
	}
	return TaskOrder{priority: priority}
}

func (o TaskOrder) compareChannel(a, b string) int {
	pa, okA := o.priority[a]
	pb, okB := o.priority[b]

	switch {
	case okA && okB:
		return sign(pa - pb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return CompareLocale(a, b)
}

// Compare - полный ключ сортировки задач
func (o TaskOrder) Compare(a, b task.Task) int {
	if c := o.compareChannel(a.Channel, b.Channel); c != 0 {
		return c
	}
	if c := CompareScriptNo(a.ScriptNo, b.ScriptNo); c != 0 {
		return c
	}
	if a.StartDate != b.StartDate {
		if a.StartDate < b.StartDate {
			return -1
		}
		return 1
	}
	return CompareLocale(a.TaskName, b.TaskName)
}

// Sort возвращает новый устойчиво отсортированный срез, вход не меняется
func (o TaskOrder) Sort(tasks []task.Task) []task.Task {
	res := slices.Clone(tasks)
	slices.SortStableFunc(res, o.Compare)
	return res
}

// SortTasks - короткая форма для разового упорядочивания
func SortTasks(tasks []task.Task, channelOrder []string) []task.Task {
	return NewTaskOrder(channelOrder).Sort(tasks)
}

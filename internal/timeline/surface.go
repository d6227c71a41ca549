package timeline

import (
	"context"
	"time"
)

// Surface - непрозрачный виджет таймлайна. Рисует то, что ему дали, события отдаёт через Handler.
type Surface interface {
	Render(items []Item, groups []Group, opts Options)
	SetSelection(itemIDs []string)
	Fit()
}

// Target - куда пришлось нажатие на поверхности
type Target string

const TargetBackground Target = "background"
const TargetItem Target = "item"
const TargetAxis Target = "axis"
const TargetGroupLabel Target = "group-label"

// PointerEvent - нажатие или отпускание с координатами в терминах таймлайна
type PointerEvent struct {
	What   Target
	Group  string
	Time   time.Time
	ItemID string
}

// ItemMove - собственный жест перемещения поверхности, End исключительный
type ItemMove struct {
	ItemID string
	Start  time.Time
	End    time.Time
}

// Handler - узкий набор колбэков поверхности.
// OnItemMoveRequested возвращает true, если перемещение можно зафиксировать, false - откатить.
type Handler interface {
	OnSelect(itemIDs []string)
	OnBackgroundPress(ev PointerEvent)
	OnBackgroundRelease(ev PointerEvent)
	OnItemMoveRequested(ctx context.Context, move ItemMove) bool
}

type Options struct {
	Editable bool
	Stack    bool
	ZoomMin  time.Duration
	ZoomMax  time.Duration
}

func DefaultOptions(editable bool) Options {
	return Options{
		Editable: editable,
		Stack:    true,
		ZoomMin:  3 * 24 * time.Hour,
		ZoomMax:  2 * 365 * 24 * time.Hour,
	}
}

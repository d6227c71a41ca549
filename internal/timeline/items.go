package timeline

import (
	"strings"
	"time"
)

type ItemKind string

const KindTask ItemKind = "task"
const KindReleaseBackground ItemKind = "release-bg"
const KindReleasePoint ItemKind = "release-point"

// ItemType - как поверхность рисует элемент
type ItemType string

const TypeRange ItemType = "range"
const TypeBackground ItemType = "background"
const TypePoint ItemType = "point"

const ClassTask = "task-pill"
const ClassTaskSelected = "task-pill selected"
const ClassReleaseBackground = "release-background"
const ClassReleasePoint = "release-point"

// Item - производный элемент таймлайна, пересчитывается на каждое изменение данных или выделения.
// End - исключительный конец, nil у точек.
type Item struct {
	ID         string     `json:"id"`
	Kind       ItemKind   `json:"kind"`
	Type       ItemType   `json:"type"`
	Group      string     `json:"group"`
	Start      time.Time  `json:"start"`
	End        *time.Time `json:"end,omitempty"`
	Content    string     `json:"content"`
	Title      string     `json:"title,omitempty"`
	ClassName  string     `json:"className"`
	Style      string     `json:"style,omitempty"`
	Selectable bool       `json:"selectable"`
}

type Group struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func TaskItemID(taskID string) string {
	return string(KindTask) + ":" + taskID
}

// TaskIDFromItem снимает префикс task:, для остальных видов элементов ok = false
func TaskIDFromItem(itemID string) (string, bool) {
	prefix := string(KindTask) + ":"
	if !strings.HasPrefix(itemID, prefix) {
		return "", false
	}
	return strings.TrimPrefix(itemID, prefix), true
}

func releaseItemID(kind ItemKind, channel, scriptNo, day string) string {
	return string(kind) + ":" + channel + ":" + scriptNo + ":" + day
}

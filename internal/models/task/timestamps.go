package task

import (
	"scheduleBoard/internal/calendar"
	"time"
)

// аудитные метки хранятся строками RFC 3339 в UTC+9
const TimestampLayout = time.RFC3339

func FormatTimestamp(t time.Time) string {
	return t.In(calendar.Zone).Format(TimestampLayout)
}

func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}

// MarkDeleted - мягкое удаление: метка deleted_at, запись остаётся в хранилище
func (t *Task) MarkDeleted(by string, at time.Time) {
	t.DeletedAt = FormatTimestamp(at)
	t.UpdatedAt = t.DeletedAt
	t.UpdatedBy = by
}

// DeletedBefore - удалена ли задача раньше момента deadline
func (t *Task) DeletedBefore(deadline time.Time) bool {
	if !t.IsDeleted() {
		return false
	}
	deletedAt, err := ParseTimestamp(t.DeletedAt)
	if err != nil {
		return false
	}
	return deletedAt.Before(deadline)
}

// Package calendar переводит календарные дни (YYYY-MM-DD, UTC+9) в моменты времени таймлайна и обратно.
//
// Смещение зоны применяется ровно один раз на преобразование: день -> полночь в UTC+9,
// момент -> календарная дата в UTC+9. Локальная зона процесса не используется никогда.
package calendar

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

const offsetSeconds = 9 * 60 * 60

const day = 24 * time.Hour

// Zone - фиксированная зона всех доменных дат
var Zone = time.FixedZone("JST", offsetSeconds)

// Range - включительный диапазон календарных дней
type Range struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// ParseDay разбирает строгий YYYY-MM-DD и возвращает полночь этого дня в UTC+9
func ParseDay(value string) (time.Time, error) {
	if len(value) != len(DayLayout) {
		return time.Time{}, fmt.Errorf("неверный формат дня %q", value)
	}
	t, err := time.ParseInLocation(DayLayout, value, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("разбор дня %q: %w", value, err)
	}
	return t, nil
}

func ValidDay(value string) bool {
	_, err := ParseDay(value)
	return err == nil
}

// FloorToDay - календарный день момента t в UTC+9
func FloorToDay(t time.Time) string {
	return t.In(Zone).Format(DayLayout)
}

// IntervalStart - полночь дня в UTC+9
func IntervalStart(value string) (time.Time, error) {
	return ParseDay(value)
}

// ExclusiveEnd - полночь следующего дня: включительный конец домена -> исключительный конец интервала
func ExclusiveEnd(value string) (time.Time, error) {
	start, err := ParseDay(value)
	if err != nil {
		return time.Time{}, err
	}
	return AddDays(start, 1), nil
}

// AddDays сдвигает момент на n суток по 24 часа
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * day)
}

// ClampRange упорядочивает пару дней по возрастанию (жест может идти назад во времени)
func ClampRange(a, b string) Range {
	if a <= b {
		return Range{Start: a, End: b}
	}
	return Range{Start: b, End: a}
}

// Today - сегодняшний день в UTC+9
func Today(now time.Time) string {
	return FloorToDay(now)
}

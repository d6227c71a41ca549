package service

import "time"

// ServiceOption - настройка сервиса при создании
type ServiceOption func(*ScheduleService)

// WithIDGenerator подменяет генератор идентификаторов задач (uuid по умолчанию)
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *ScheduleService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *ScheduleService) {
		if now != nil {
			s.now = now
		}
	}
}

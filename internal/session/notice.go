package session

import (
	"scheduleBoard/internal/logger"

	"go.uber.org/zap"
)

type NoticeKind int

const (
	// NoticeBanner - ненавязчивое сообщение, работа продолжается
	NoticeBanner NoticeKind = iota
	// NoticeAlert - блокирующее сообщение, пользователь должен его закрыть
	NoticeAlert
)

func (k NoticeKind) String() string {
	if k == NoticeAlert {
		return "alert"
	}
	return "banner"
}

// Notifier показывает сообщения пользователю
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

type NotifierFunc func(kind NoticeKind, message string)

func (f NotifierFunc) Notify(kind NoticeKind, message string) {
	f(kind, message)
}

// logNotifier используется, если у сессии нет своего Notifier
type logNotifier struct{}

func (logNotifier) Notify(kind NoticeKind, message string) {
	logger.Info("Session: Уведомление", zap.Stringer("kind", kind), zap.String("message", message))
}

const (
	msgConflict      = "Изменение конфликтует с правкой другого пользователя. Данные обновлены."
	msgNotFound      = "Задача не найдена, возможно её удалил другой пользователь. Данные обновлены."
	msgForbidden     = "Недостаточно прав для изменения расписания."
	msgReleaseFields = "Для даты релиза нужны канал, номер сценария и дата."
	msgRefreshFailed = "Не удалось обновить данные: "
)

package handlers

import (
	"net/http"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/rpc"
	"scheduleBoard/internal/service"

	"go.uber.org/zap"
)

// handleBusinessError пишет ошибку конвертом. Причина INTERNAL остаётся в логе, клиенту уходит только сообщение.
func handleBusinessError(w http.ResponseWriter, action string, err error) {
	busErr := service.AsBusinessError(err)
	statusCode := mapBusinessErrorToHTTP(busErr.Code)

	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP: Внутренняя ошибка", err,
			zap.String("action", action),
			zap.Int("http_status", statusCode))
	} else {
		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("action", action),
			zap.String("error_code", busErr.Code),
			zap.Strings("fields", busErr.Fields),
			zap.Int("http_status", statusCode))
	}

	responseWithError(w, statusCode, rpc.Code(busErr.Code), busErr.Message, busErr.Fields...)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"scheduleBoard/internal/service"
	"strings"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodePayload - отсутствующий payload разбирается как пустой объект
func decodePayload(raw json.RawMessage, target any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return service.NewValidationError("неверный payload: "+err.Error(), "payload")
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return service.NewValidationError("id обязателен", "id")
	}
	return nil
}

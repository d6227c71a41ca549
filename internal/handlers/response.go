package handlers

import (
	"encoding/json"
	"net/http"
	"scheduleBoard/internal/rpc"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func toJSON(storage map[string]any, payload Payload) {
	storage[payload.Key] = payload.Payload
}

func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	storage := make(map[string]any)
	for _, pl := range payload {
		toJSON(storage, pl)
	}
	json.NewEncoder(w).Encode(storage)
}

// responseWithEnvelope - все ответы /rpc, включая ошибки, приходят конвертом
func responseWithEnvelope(w http.ResponseWriter, code int, env *rpc.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

func responseWithError(w http.ResponseWriter, code int, errCode rpc.Code, message string, fields ...string) {
	responseWithEnvelope(w, code, rpc.Failure(errCode, message, fields...))
}

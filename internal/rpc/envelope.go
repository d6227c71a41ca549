// Package rpc - удалённые процедуры доски: конверт {ok, data, error}, транспорт и типизированный клиент.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"scheduleBoard/internal/models/task"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	ActionBootstrap          = "bootstrap.get"
	ActionTasksList          = "tasks.list"
	ActionReleaseDatesList   = "releaseDates.list"
	ActionTasksCreate        = "tasks.create"
	ActionTasksUpdate        = "tasks.update"
	ActionTasksDelete        = "tasks.delete"
	ActionReleaseDatesUpsert = "releaseDates.upsert"
)

type Code string

const CodeValidation Code = "VALIDATION"
const CodeForbidden Code = "FORBIDDEN"
const CodeConflict Code = "CONFLICT"
const CodeNotFound Code = "NOT_FOUND"
const CodeInternal Code = "INTERNAL"

// Error - ошибка из конверта; Fields есть только у VALIDATION
type Error struct {
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

type Request struct {
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"requestId"`
}

type CreateTaskPayload struct {
	Task task.TaskDraft `json:"task"`
}

type UpdateTaskPayload struct {
	ID      string         `json:"id"`
	Version int            `json:"version"`
	Task    task.TaskPatch `json:"task"`
}

type DeleteTaskPayload struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

type DeletedTask struct {
	ID string `json:"id"`
}

type UpsertReleaseDatePayload struct {
	Channel     string `json:"channel"`
	ScriptNo    string `json:"script_no"`
	ReleaseDate string `json:"release_date"`
}

// NewRequestID - "<unix millis>-<hex>"
func NewRequestID() string {
	id := uuid.New()
	return fmt.Sprintf("%d-%x", time.Now().UnixMilli(), id[:6])
}

func Success(data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("кодирование данных ответа: %w", err)
	}
	return &Envelope{OK: true, Data: raw}, nil
}

func Failure(code Code, message string, fields ...string) *Envelope {
	return &Envelope{OK: false, Error: &Error{Code: code, Message: message, Fields: fields}}
}

func NewError(code Code, message string, fields ...string) *Error {
	return &Error{Code: code, Message: message, Fields: fields}
}

// CodeOf - код ошибки; всё, что не *Error, считается INTERNAL
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return CodeInternal
}

func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func IsConflict(err error) bool {
	return IsCode(err, CodeConflict)
}

const previewLimit = 120

var whitespace = regexp.MustCompile(`\s+`)

// Preview - первые 120 символов сырого ответа, пробельные серии схлопнуты
func Preview(raw []byte) string {
	s := string(raw)
	if utf8.RuneCountInString(s) > previewLimit {
		s = string([]rune(s)[:previewLimit])
	}
	return whitespace.ReplaceAllString(s, " ")
}

package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation = "VALIDATION"
	CodeForbidden  = "FORBIDDEN"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL"
)

type BusinessError struct {
	Code    string
	Message string
	Fields  []string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewValidationError - fields перечисляет поля формы, которые нужно исправить
func NewValidationError(reason string, fields ...string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: reason,
		Fields:  fields,
	}
}

func NewForbidden(email string) *BusinessError {
	return &BusinessError{
		Code:    CodeForbidden,
		Message: "недостаточно прав для изменения",
		Details: map[string]any{"email": email},
	}
}

func NewConflict(id string, version int) *BusinessError {
	return &BusinessError{
		Code:    CodeConflict,
		Message: fmt.Sprintf("задача %s изменена другим пользователем (ожидалась версия %d)", id, version),
		Details: map[string]any{
			"id":      id,
			"version": version,
		},
	}
}

func NewInternal(message string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeInternal,
		Message: message,
		Err:     err,
	}
}

// AsBusinessError - любая ошибка, не являющаяся BusinessError, становится INTERNAL
func AsBusinessError(err error) *BusinessError {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr
	}
	return NewInternal("внутренняя ошибка", err)
}

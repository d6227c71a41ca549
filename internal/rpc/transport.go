package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"scheduleBoard/internal/logger"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Invoker - единственная возможность, от которой зависит клиент: вызвать действие и получить конверт.
// Выбор транспорта (HTTP, мост хоста, in-process) - дело внешней сборки.
type Invoker interface {
	Invoke(ctx context.Context, action string, payload any) (*Envelope, error)
}

// InvokerFunc - адаптер функции к Invoker
type InvokerFunc func(ctx context.Context, action string, payload any) (*Envelope, error)

func (f InvokerFunc) Invoke(ctx context.Context, action string, payload any) (*Envelope, error) {
	return f(ctx, action, payload)
}

const UserHeader = "X-User-Email"

type HTTPTransport struct {
	client   *resty.Client
	endpoint string
}

type TransportOption func(*HTTPTransport)

func WithTimeout(timeout time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		t.client.SetTimeout(timeout)
	}
}

// WithUser - почта пользователя, по ней сервер определяет роль
func WithUser(email string) TransportOption {
	return func(t *HTTPTransport) {
		if email != "" {
			t.client.SetHeader(UserHeader, email)
		}
	}
}

// WithRestyClient - свой resty клиент (тесты, прокси)
func WithRestyClient(c *resty.Client) TransportOption {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

func NewHTTPTransport(endpoint string, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:   resty.New().SetTimeout(30 * time.Second),
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Invoke отправляет {action, payload, requestId} POST запросом.
// Ошибки сети и неразборчивый ответ превращаются в INTERNAL с превью тела.
func (t *HTTPTransport) Invoke(ctx context.Context, action string, payload any) (*Envelope, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(CodeInternal, fmt.Sprintf("кодирование запроса %s: %v", action, err))
	}
	req := Request{
		Action:    action,
		Payload:   rawPayload,
		RequestID: NewRequestID(),
	}

	start := time.Now()
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(t.endpoint)
	if err != nil {
		logger.Warn("RPC: Ошибка транспорта",
			zap.String("action", action),
			zap.String("request_id", req.RequestID),
			zap.Error(err))
		return nil, NewError(CodeInternal, fmt.Sprintf("ошибка транспорта: %v", err))
	}

	logger.Debug("RPC: Ответ получен",
		zap.String("action", action),
		zap.String("request_id", req.RequestID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("ms", time.Since(start)))

	raw := resp.Body()
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, NewError(CodeInternal,
			fmt.Sprintf("не удалось разобрать JSON ответа (status=%d): %s", resp.StatusCode(), Preview(raw)))
	}

	if resp.IsError() {
		if env.Error != nil {
			return &Envelope{OK: false, Error: env.Error}, nil
		}
		return Failure(CodeInternal, "Request failed"), nil
	}

	return &env, nil
}

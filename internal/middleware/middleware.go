package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/rpc"
	"scheduleBoard/internal/service"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const RequestIdKey contextKey = "request_id"
const ActorKey contextKey = "actor"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" {
			requestId = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestId)

		ctx := context.WithValue(r.Context(), RequestIdKey, requestId)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

type loggingWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (lw *loggingWriter) WriteHeader(code int) {
	if !lw.wroteHeader {
		lw.status = code
		lw.wroteHeader = true
		lw.ResponseWriter.WriteHeader(code)
	}
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if !lw.wroteHeader {
		lw.WriteHeader(http.StatusOK)
	}

	n, err := lw.ResponseWriter.Write(b)
	lw.size += n
	return n, err
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := GetRequestID(r.Context())

		logger.Info(
			"HTTP_IN: Начало запроса",
			zap.String("request_id", requestId),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr),
		)

		lw := &loggingWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}
		next.ServeHTTP(lw, r)

		logLevel := zap.InfoLevel
		if lw.status >= 400 && lw.status < 500 {
			logLevel = zap.WarnLevel
		} else if lw.status >= 500 {
			logLevel = zap.ErrorLevel
		}
		logger.Log(
			logLevel,
			"HTTP_OUT: Завершение запроса",
			zap.String("request_id", requestId),
			zap.Int("status", lw.status),
			zap.Int("bytes_written", lw.size),
			zap.Duration("ms", time.Since(start)),
		)
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// RateLimit - не больше rpm запросов в минуту с одного IP.
// Отказ приходит в виде конверта, чтобы клиент RPC разобрал его как обычную ошибку.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	clients := make(map[string]*clientInfo)
	var mtx sync.Mutex
	window := time.Minute

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIp(r)
			now := time.Now()

			mtx.Lock()

			info, exists := clients[ip]

			if !exists {
				info = &clientInfo{
					count:   1,
					resetAt: now.Add(window),
				}
				clients[ip] = info
			} else if now.After(info.resetAt) {
				info.count = 1
				info.resetAt = now.Add(window)
			} else {
				if info.count >= rpm {
					retryAfter := int(info.resetAt.Sub(now).Seconds())
					mtx.Unlock()

					logger.Warn("HTTP: Превышен лимит запросов",
						zap.String("client_ip", ip),
						zap.String("request_id", GetRequestID(r.Context())))

					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
					w.WriteHeader(http.StatusTooManyRequests)
					json.NewEncoder(w).Encode(rpc.Failure(rpc.CodeInternal, "Слишком много запросов. Попробуйте позже."))
					return
				}

				info.count++
			}

			remaining := rpm - info.count
			resetUnix := info.resetAt.Unix()

			mtx.Unlock()

			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetUnix, 10))

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Identity определяет пользователя по заголовку X-User-Email и роль по таблице users.
// Аутентификации здесь нет: заголовок ставит доверенный прокси. Неизвестные пользователи - viewer.
func Identity(users map[string]task.Role) func(http.Handler) http.Handler {
	normalized := make(map[string]task.Role, len(users))
	for email, role := range users {
		normalized[strings.ToLower(strings.TrimSpace(email))] = role
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.ToLower(strings.TrimSpace(r.Header.Get(rpc.UserHeader)))

			role, ok := normalized[email]
			if !ok || !role.Valid() {
				role = task.RoleViewer
			}

			actor := service.Actor{Email: email, Role: role}
			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActor кладёт пользователя в контекст в обход заголовка (вызовы в процессе, тесты)
func WithActor(ctx context.Context, actor service.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor - без Identity в цепочке пользователь анонимный viewer
func GetActor(ctx context.Context) service.Actor {
	if actor, ok := ctx.Value(ActorKey).(service.Actor); ok {
		return actor
	}
	return service.Actor{Role: task.RoleViewer}
}

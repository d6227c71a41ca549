package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"scheduleBoard/internal/config"
	"scheduleBoard/internal/handlers"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/middleware"
	"scheduleBoard/internal/repository/task/inmemory"
	"scheduleBoard/internal/repository/task/postgres"
	"scheduleBoard/internal/service"
	"scheduleBoard/internal/worker"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.Repository
	service    *service.ScheduleService
	handler    *handlers.RPCHandler
	worker     *worker.PurgeWorker
	shutdowns  []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	masters, err := config.LoadMasters(a.config.Masters.File)
	if err != nil {
		return nil, fmt.Errorf("загрузка справочников: %w", err)
	}

	repoType, err := a.initRepository(ctx)
	if err != nil {
		return nil, err
	}

	a.service = service.NewScheduleService(a.repository, masters, repoType)
	a.handler = handlers.NewRPCHandler(a.service)
	a.initRouter()

	if a.config.Purge.Enabled {
		a.worker = worker.NewPurgeWorker(a.service, a.config.Purge.Interval, a.config.Purge.Retention, a.config.Purge.BatchSize)
	}

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("App: Инициализация завершена",
		zap.String("repo_type", string(repoType)),
		zap.Int("channels", len(masters.ActiveChannels())),
		zap.Int("users", len(a.config.Users)))
	return a, nil
}

func (a *App) initRepository(ctx context.Context) (service.RepoType, error) {
	switch service.RepoType(a.config.Repository.Type) {
	case service.DBType:
		storage, err := postgres.New(ctx, a.config.Database.URL,
			postgres.WithPoolSize(a.config.Database.MaxConnections, a.config.Database.MinConnections),
			postgres.WithIdleTimeout(a.config.Database.IdleTimeout))
		if err != nil {
			return "", fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)

		if err := storage.Migrate(); err != nil {
			return "", fmt.Errorf("миграции: %w", err)
		}
		a.repository = storage
		return service.DBType, nil
	default:
		a.repository = inmemory.NewTaskStorage()
		return service.InMemoryType, nil
	}
}

func (a *App) initRouter() {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "X-User-Email"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if a.config.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(a.config.Server.RateLimit))
	}

	r.Get("/health", a.handler.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(a.config.Roles()))
		r.Post("/rpc", a.handler.Dispatch)
	})

	a.router = r
}

// Router - для тестов и встраивания без собственного сервера
func (a *App) Router() http.Handler {
	return a.router
}

// Run блокирует до отмены ctx или ошибки сервера, затем останавливает всё по порядку
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("App: Остановка сервера")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"scheduleBoard/internal/logger"
	"scheduleBoard/internal/models/task"
	repo "scheduleBoard/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool       *pgxpool.Pool
	connString string
}

// Option - настройка пула поверх строки подключения
type Option func(*pgxpool.Config)

// WithPoolSize - нулевые значения не меняют настройку
func WithPoolSize(maxConns, minConns int) Option {
	return func(c *pgxpool.Config) {
		if maxConns > 0 {
			c.MaxConns = int32(maxConns)
		}
		if minConns > 0 {
			c.MinConns = int32(minConns)
		}
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnIdleTime = d
		}
	}
}

func New(ctx context.Context, connString string, opts ...Option) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	for _, opt := range opts {
		opt(config)
	}
	if config.MinConns > config.MaxConns {
		config.MinConns = config.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, connString: connString}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

const taskColumns = `id::text,
				version,
				status,
				channel,
				assignee,
				script_no,
				task_type,
				task_name,
				to_char(start_date, 'YYYY-MM-DD'),
				to_char(end_date, 'YYYY-MM-DD'),
				created_at,
				created_by,
				updated_at,
				updated_by,
				deleted_at`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var createdAt, updatedAt time.Time
	var deletedAt *time.Time

	err := row.Scan(
		&t.ID,
		&t.Version,
		&t.Status,
		&t.Channel,
		&t.Assignee,
		&t.ScriptNo,
		&t.TaskType,
		&t.TaskName,
		&t.StartDate,
		&t.EndDate,
		&createdAt,
		&t.CreatedBy,
		&updatedAt,
		&t.UpdatedBy,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt = task.FormatTimestamp(createdAt)
	t.UpdatedAt = task.FormatTimestamp(updatedAt)
	if deletedAt != nil {
		t.DeletedAt = task.FormatTimestamp(*deletedAt)
	}
	return t, nil
}

func slowQuery(start time.Time, limit time.Duration, op string) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", time.Since(start)))
	}
}

// mismatchReason различает конфликт версий и отсутствующую (или удалённую) задачу,
// когда UPDATE ... WHERE version = $n не затронул ни одной строки
func (s *Storage) mismatchReason(ctx context.Context, id string, expected int) error {
	var deleted bool
	err := s.pool.QueryRow(ctx, `SELECT deleted_at IS NOT NULL FROM tasks WHERE id = $1`, id).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		return fmt.Errorf("проверка версии: %w", err)
	}
	if deleted {
		return repo.ErrNotFound
	}

	logger.Warn("Конфликт версий",
		zap.String("task_id", id),
		zap.Int("expected_version", expected))
	return repo.ErrVersionConflict
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(id, version, status, channel, assignee, script_no, task_type, task_name,
				 start_date, end_date, created_by, updated_by)
				VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8::date, $9::date, $10, $10)
				RETURNING version, created_at, updated_at`

	var createdAt, updatedAt time.Time
	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.Status,
		taskToCreate.Channel,
		taskToCreate.Assignee,
		taskToCreate.ScriptNo,
		taskToCreate.TaskType,
		taskToCreate.TaskName,
		taskToCreate.StartDate,
		taskToCreate.EndDate,
		taskToCreate.CreatedBy,
	).Scan(&taskToCreate.Version, &createdAt, &updatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	taskToCreate.CreatedAt = task.FormatTimestamp(createdAt)
	taskToCreate.UpdatedAt = task.FormatTimestamp(updatedAt)
	taskToCreate.UpdatedBy = taskToCreate.CreatedBy

	slowQuery(start, time.Millisecond*50, "create")
	return nil
}

// Update - проверка версии в том же UPDATE, версия увеличивается на сервере БД
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET status = $1,
				channel = $2,
				assignee = $3,
				script_no = $4,
				task_type = $5,
				task_name = $6,
				start_date = $7::date,
				end_date = $8::date,
				updated_by = $9,
				version = version + 1,
				updated_at = NOW()
			WHERE id = $10 AND version = $11 AND deleted_at IS NULL
			RETURNING ` + taskColumns

	updated, err := scanTask(s.pool.QueryRow(ctx, query,
		taskToUpdate.Status,
		taskToUpdate.Channel,
		taskToUpdate.Assignee,
		taskToUpdate.ScriptNo,
		taskToUpdate.TaskType,
		taskToUpdate.TaskName,
		taskToUpdate.StartDate,
		taskToUpdate.EndDate,
		taskToUpdate.UpdatedBy,
		taskToUpdate.ID,
		taskToUpdate.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.mismatchReason(ctx, taskToUpdate.ID, taskToUpdate.Version)
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	*taskToUpdate = *updated
	slowQuery(start, time.Millisecond*100, "update")
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	slowQuery(start, time.Millisecond*100, "get")
	return t, nil
}

// List - все неудалённые задачи
func (s *Storage) List(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE deleted_at IS NULL
				ORDER BY created_at, id`

	tasks, err := s.queryTasks(ctx, query)
	if err != nil {
		return nil, err
	}

	slowQuery(start, time.Millisecond*200, "list")
	return tasks, nil
}

// мягкое удаление задачи
func (s *Storage) DeleteSoft(ctx context.Context, taskToDelete *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
				SET deleted_at = NOW(),
				updated_at = NOW(),
				updated_by = $1,
				version = version + 1
			WHERE id = $2 AND version = $3 AND deleted_at IS NULL
			RETURNING ` + taskColumns

	deleted, err := scanTask(s.pool.QueryRow(ctx, query, taskToDelete.UpdatedBy, taskToDelete.ID, taskToDelete.Version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.mismatchReason(ctx, taskToDelete.ID, taskToDelete.Version)
		}
		logger.Error("Repository: Мягкое удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("мягкое удаление: %w", err)
	}

	*taskToDelete = *deleted
	slowQuery(start, time.Millisecond*100, "delete_soft")
	return nil
}

// полное удаление из БД
func (s *Storage) DeleteFull(ctx context.Context, id string) error {
	start := time.Now()

	_, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Полное удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("полное удаление: %w", err)
	}

	slowQuery(start, time.Millisecond*100, "delete_full")
	return nil
}

func (s *Storage) GetDeletedBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE deleted_at IS NOT NULL AND deleted_at < $1
				ORDER BY deleted_at
				LIMIT $2`

	tasks, err := s.queryTasks(ctx, query, deadline, limit)
	if err != nil {
		return nil, err
	}

	slowQuery(start, time.Millisecond*50+time.Millisecond*10*time.Duration(limit), "deleted_before")
	return tasks, nil
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func (s *Storage) ListReleaseDates(ctx context.Context) ([]*task.ReleaseDate, error) {
	start := time.Now()

	query := `SELECT channel, script_no, to_char(release_date, 'YYYY-MM-DD'), updated_at, updated_by
				FROM release_dates
				ORDER BY release_date, channel, script_no`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить даты релиза", err)
		return nil, fmt.Errorf("получение дат релиза: %w", err)
	}
	defer rows.Close()

	res := []*task.ReleaseDate{}
	for rows.Next() {
		r := &task.ReleaseDate{}
		var updatedAt time.Time
		if err := rows.Scan(&r.Channel, &r.ScriptNo, &r.ReleaseDate, &updatedAt, &r.UpdatedBy); err != nil {
			logger.Warn("Repository: Ошибка сканирования даты релиза", zap.Error(err))
			continue
		}
		r.UpdatedAt = task.FormatTimestamp(updatedAt)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	slowQuery(start, time.Millisecond*100, "list_release_dates")
	return res, nil
}

// UpsertReleaseDate - ключ записи (channel, script_no)
func (s *Storage) UpsertReleaseDate(ctx context.Context, release *task.ReleaseDate) error {
	start := time.Now()

	query := `INSERT INTO release_dates (channel, script_no, release_date, updated_at, updated_by)
				VALUES ($1, $2, $3::date, NOW(), $4)
				ON CONFLICT (channel, script_no) DO UPDATE
				SET release_date = EXCLUDED.release_date,
					updated_at = EXCLUDED.updated_at,
					updated_by = EXCLUDED.updated_by
				RETURNING updated_at`

	var updatedAt time.Time
	err := s.pool.QueryRow(ctx, query, release.Channel, release.ScriptNo, release.ReleaseDate, release.UpdatedBy).Scan(&updatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить дату релиза", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("сохранение даты релиза: %w", err)
	}

	release.UpdatedAt = task.FormatTimestamp(updatedAt)
	slowQuery(start, time.Millisecond*50, "upsert_release_date")
	return nil
}

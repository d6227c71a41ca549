package worker

import (
	"context"
	"scheduleBoard/internal/logger"
	"time"

	"go.uber.org/zap"
)

// Purger - окончательное удаление задач, мягко удалённых раньше чем retention назад
type Purger interface {
	PurgeDeleted(ctx context.Context, retention time.Duration, limit int) (int, error)
}

type PurgeWorker struct {
	purger    Purger
	interval  time.Duration
	retention time.Duration
	batchSize int
}

// NewPurgeWorker - нулевые значения заменяются значениями по умолчанию: 1 час, 30 дней, 100 задач
func NewPurgeWorker(purger Purger, interval, retention time.Duration, batchSize int) *PurgeWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &PurgeWorker{
		purger:    purger,
		interval:  interval,
		retention: retention,
		batchSize: batchSize,
	}
}

// Start блокирует до отмены ctx
func (w *PurgeWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Очистка удалённых задач", zap.Time("started_at", time.Now()))
			w.Purge(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Очистка останавливается")
			return
		}
	}
}

// Purge - один проход; партии удаляются, пока очередная не окажется неполной
func (w *PurgeWorker) Purge(ctx context.Context) int {
	start := time.Now()
	total := 0

	for ctx.Err() == nil {
		purged, err := w.purger.PurgeDeleted(ctx, w.retention, w.batchSize)
		if err != nil {
			logger.Warn("Worker: ошибка очистки задач", zap.Error(err))
			break
		}
		total += purged
		if purged < w.batchSize {
			break
		}
	}

	logger.Info(
		"Worker: Завершение очистки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("purged", total),
		zap.Duration("retention", w.retention),
	)
	return total
}

package workers

import (
	"context"
	"sync"
	"time"

	"natours_backend/internal/logger"

	"gorm.io/gorm"
)

// Task - одна периодическая задача обслуживания
type Task interface {
	Name() string
	Interval() time.Duration
	RunOnce(ctx context.Context) (int64, error)
}

// Runner запускает задачи в отдельных горутинах до отмены ctx
type Runner struct {
	tasks []Task
	wg    sync.WaitGroup
}

func NewRunner(tasks ...Task) *Runner {
	return &Runner{tasks: tasks}
}

// Start не блокирует; Wait дожидается остановки всех задач
func (r *Runner) Start(ctx context.Context) {
	for _, task := range r.tasks {
		r.wg.Add(1)
		go func(task Task) {
			defer r.wg.Done()
			r.loop(ctx, task)
		}(task)
	}
	logger.Info("Background workers started", "count", len(r.tasks))
}

func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, task Task) {
	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopped", "worker", task.Name())
			return
		case <-ticker.C:
			affected, err := task.RunOnce(ctx)
			logger.WorkerLog(task.Name(), "tick", affected, err)
		}
	}
}

type resetTokenStore interface {
	ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error)
}

// ResetTokenWorker стирает просроченные токены сброса пароля
type ResetTokenWorker struct {
	db       *gorm.DB
	users    resetTokenStore
	interval time.Duration
	now      func() time.Time
}

func NewResetTokenWorker(db *gorm.DB, users resetTokenStore) *ResetTokenWorker {
	return &ResetTokenWorker{db: db, users: users, interval: time.Hour, now: time.Now}
}

func (w *ResetTokenWorker) Name() string            { return "reset_tokens" }
func (w *ResetTokenWorker) Interval() time.Duration { return w.interval }

func (w *ResetTokenWorker) RunOnce(ctx context.Context) (int64, error) {
	return w.users.ClearExpiredResetTokens(w.db.WithContext(ctx), w.now())
}

type ratingsStore interface {
	RecomputeAllRatings(db *gorm.DB) (int64, error)
}

// RatingsWorker раз в сутки сверяет ratingsAverage/ratingsQuantity всех туров с отзывами
type RatingsWorker struct {
	db       *gorm.DB
	tours    ratingsStore
	interval time.Duration
}

func NewRatingsWorker(db *gorm.DB, tours ratingsStore) *RatingsWorker {
	return &RatingsWorker{db: db, tours: tours, interval: 24 * time.Hour}
}

func (w *RatingsWorker) Name() string            { return "ratings" }
func (w *RatingsWorker) Interval() time.Duration { return w.interval }

func (w *RatingsWorker) RunOnce(ctx context.Context) (int64, error) {
	return w.tours.RecomputeAllRatings(w.db.WithContext(ctx))
}

type limiterCleaner interface {
	Cleanup() int
}

// LimiterCleanupWorker убирает счетчики IP, окно которых истекло
type LimiterCleanupWorker struct {
	limiter  limiterCleaner
	interval time.Duration
}

func NewLimiterCleanupWorker(limiter limiterCleaner, interval time.Duration) *LimiterCleanupWorker {
	return &LimiterCleanupWorker{limiter: limiter, interval: interval}
}

func (w *LimiterCleanupWorker) Name() string            { return "rate_limit_cleanup" }
func (w *LimiterCleanupWorker) Interval() time.Duration { return w.interval }

func (w *LimiterCleanupWorker) RunOnce(context.Context) (int64, error) {
	return int64(w.limiter.Cleanup()), nil
}

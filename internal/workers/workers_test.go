package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeUsers struct {
	calls atomic.Int32
	now   time.Time
}

func (f *fakeUsers) ClearExpiredResetTokens(_ *gorm.DB, now time.Time) (int64, error) {
	f.calls.Add(1)
	f.now = now
	return 2, nil
}

type fakeTours struct {
	err error
}

func (f *fakeTours) RecomputeAllRatings(*gorm.DB) (int64, error) {
	return 0, f.err
}

type fakeLimiter struct {
	calls atomic.Int32
}

func (f *fakeLimiter) Cleanup() int {
	f.calls.Add(1)
	return 1
}

// testDB - gorm поверх sqlmock; сами задачи SQL не выполняют
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestResetTokenWorker_RunOnce(t *testing.T) {
	users := &fakeUsers{}
	w := NewResetTokenWorker(testDB(t), users)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	affected, err := w.RunOnce(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)
	assert.Equal(t, fixed, users.now)
	assert.Equal(t, time.Hour, w.Interval())
}

func TestRatingsWorker_RunOnce(t *testing.T) {
	w := NewRatingsWorker(testDB(t), &fakeTours{err: assert.AnError})

	_, err := w.RunOnce(context.Background())

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 24*time.Hour, w.Interval())
}

func TestRunner_TicksUntilCancelled(t *testing.T) {
	users := &fakeUsers{}
	resetTokens := NewResetTokenWorker(testDB(t), users)
	resetTokens.interval = 5 * time.Millisecond

	limiter := &fakeLimiter{}
	cleanup := NewLimiterCleanupWorker(limiter, 5*time.Millisecond)

	ratings := NewRatingsWorker(testDB(t), &fakeTours{err: assert.AnError})
	ratings.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(resetTokens, cleanup, ratings)
	runner.Start(ctx)

	require.Eventually(t, func() bool {
		return users.calls.Load() >= 2 && limiter.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	// ошибка одной задачи не останавливает остальные
	cancel()
	runner.Wait()
}

func TestRunner_NoTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner()
	runner.Start(ctx)
	cancel()
	runner.Wait()
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"natours_backend/internal/logger"
	"natours_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config - параметры подключения к postgres
type Config struct {
	DSN     string
	MaxOpen int
	MaxIdle int
	// SlowQuery - порог медленного запроса, 0 отключает
	SlowQuery time.Duration
}

// Connect открывает GORM поверх pgx и проверяет соединение
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: NewSlogLogger(cfg.SlowQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if cfg.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	logger.Info("Database connected", "max_open", cfg.MaxOpen, "max_idle", cfg.MaxIdle)
	return db, nil
}

// Models - все таблицы приложения в порядке создания
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tour{},
		&models.Review{},
		&models.Booking{},
	}
}

// Migrate создает расширение uuid-ossp и применяет AutoMigrate
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	logger.Info("AutoMigrate completed", "tables", len(Models()))
	return nil
}

// slogLogger направляет логи gorm в общий slog поток
type slogLogger struct {
	level     gormlogger.LogLevel
	slowQuery time.Duration
}

func NewSlogLogger(slowQuery time.Duration) gormlogger.Interface {
	return &slogLogger{level: gormlogger.Warn, slowQuery: slowQuery}
}

func (l *slogLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.CtxInfo(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.CtxWarn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.CtxError(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	// ErrRecordNotFound - обычный результат поиска, репозитории сами его обрабатывают
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logger.CtxError(ctx, "database query failed", "error", err.Error(), "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.CtxWarn(ctx, "slow database query", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		logger.CtxDebug(ctx, "database query", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	}
}

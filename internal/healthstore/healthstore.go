// Package healthstore is an optional, disabled-by-default persistence layer
// for provider health checks and circuit-breaker transitions. It is an
// ambient observability concern, distinct from the content-addressed disk
// cache in internal/cache: nothing here stores search results or papers.
package healthstore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// HealthCheck is one recorded provider health probe.
type HealthCheck struct {
	ID        uint   `gorm:"primaryKey"`
	Provider  string `gorm:"index;size:64"`
	Healthy   bool
	LatencyMS int64
	Error     string    `gorm:"size:512"`
	CreatedAt time.Time `gorm:"index"`
}

// BreakerTransition is one recorded circuit-breaker state change.
type BreakerTransition struct {
	ID        uint      `gorm:"primaryKey"`
	Provider  string    `gorm:"index;size:64"`
	FromState string    `gorm:"size:16"`
	ToState   string    `gorm:"size:16"`
	CreatedAt time.Time `gorm:"index"`
}

// Config selects the backing database, matching the teacher's Database.Type
// switch: sqlite for single-instance deployments, postgres for fleets that
// share one health history across instances.
type Config struct {
	Enabled bool
	Type    string // "sqlite" or "postgres"
	DSN     string
}

func DefaultConfig(sqlitePath string) Config {
	return Config{Enabled: false, Type: "sqlite", DSN: sqlitePath}
}

// Store is a thin gorm wrapper scoped to the two tables above. A disabled
// Store is safe to call: every method is then a no-op.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects (and auto-migrates) the configured database. When
// cfg.Enabled is false, Open returns a non-nil, fully inert Store so
// callers never need to nil-check.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		return &Store{}, nil
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported health store database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening health store: %w", err)
	}

	if err := db.AutoMigrate(&HealthCheck{}, &BreakerTransition{}); err != nil {
		return nil, fmt.Errorf("migrating health store: %w", err)
	}

	logger.Info("health store opened", slog.String("type", cfg.Type))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) enabled() bool { return s != nil && s.db != nil }

// RecordHealthCheck persists one provider health probe. Failures are logged
// and never bubble up: health history is best-effort, not load-bearing.
func (s *Store) RecordHealthCheck(provider string, healthy bool, latency time.Duration, checkErr error) {
	if !s.enabled() {
		return
	}
	errText := ""
	if checkErr != nil {
		errText = checkErr.Error()
	}
	row := HealthCheck{
		Provider:  provider,
		Healthy:   healthy,
		LatencyMS: latency.Milliseconds(),
		Error:     errText,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		s.logger.Warn("health check failed to persist", slog.String("provider", provider), slog.String("error", err.Error()))
	}
}

// RecordBreakerTransition persists one circuit-breaker state change. Wire
// this to (*errors.CircuitBreaker).SetOnStateChange.
func (s *Store) RecordBreakerTransition(provider, from, to string) {
	if !s.enabled() {
		return
	}
	row := BreakerTransition{
		Provider:  provider,
		FromState: from,
		ToState:   to,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		s.logger.Warn("breaker transition failed to persist", slog.String("provider", provider), slog.String("error", err.Error()))
	}
}

// RecentTransitions returns the most recent breaker transitions for a
// provider (or every provider, when provider is empty), newest first.
func (s *Store) RecentTransitions(provider string, limit int) ([]BreakerTransition, error) {
	if !s.enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	q := s.db.Order("created_at desc").Limit(limit)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	var rows []BreakerTransition
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying breaker transitions: %w", err)
	}
	return rows, nil
}

// RecentHealthChecks returns the most recent health checks for a provider
// (or every provider, when provider is empty), newest first.
func (s *Store) RecentHealthChecks(provider string, limit int) ([]HealthCheck, error) {
	if !s.enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	q := s.db.Order("created_at desc").Limit(limit)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	var rows []HealthCheck
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying health checks: %w", err)
	}
	return rows, nil
}

// Close releases the underlying connection pool. Safe to call on a disabled
// Store.
func (s *Store) Close() error {
	if !s.enabled() {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

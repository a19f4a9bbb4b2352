package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/vegaedge/pkg/config"
)

// applicationName shows up in pg_stat_activity for every pooled connection
const applicationName = "vegaedge"

// connectTimeout bounds pool creation and the first ping
const connectTimeout = 5 * time.Second

// DB holds the snapshot store connection pool
// ⭐ SSOT: database connections are created only in this package
type DB struct {
	Pool *pgxpool.Pool
}

// PoolConfig translates DATABASE_URL and the DB_* pool settings into a pgx config.
// Zero pool settings keep pgx defaults.
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	db := cfg.Database
	if db.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not configured")
	}
	if db.MaxConns > 0 && db.MinConns > db.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS %d exceeds DB_MAX_CONNS %d", db.MinConns, db.MaxConns)
	}

	pc, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if db.MaxConns > 0 {
		pc.MaxConns = int32(db.MaxConns)
	}
	if db.MinConns > 0 {
		pc.MinConns = int32(db.MinConns)
	}
	if db.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = db.MaxConnLifetime
	}
	if db.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = db.MaxConnIdleTime
	}
	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; !ok {
		pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return pc, nil
}

// New opens the pool and verifies it with a ping
// ⭐ SSOT: the only caller of pgxpool.NewWithConfig()
func New(cfg *config.Config) (*DB, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool; calling it twice is safe
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthStatus is what `vegaedge check` reports for the snapshot store
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
}

// PoolStats is the subset of pgxpool statistics worth printing
type PoolStats struct {
	MaxConns      int32 `json:"max_conns"`
	TotalConns    int32 `json:"total_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	IdleConns     int32 `json:"idle_conns"`
}

// HealthCheck pings the pool and reports latency and pool usage
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	err := db.Pool.Ping(ctx)
	status := &HealthStatus{
		Healthy:      err == nil,
		ResponseTime: time.Since(start),
		Stats:        db.Stats(),
	}
	if err != nil {
		status.Error = err.Error()
		return status, err
	}
	return status, nil
}

// Stats returns the current pool statistics
func (db *DB) Stats() PoolStats {
	s := db.Pool.Stat()
	return PoolStats{
		MaxConns:      s.MaxConns(),
		TotalConns:    s.TotalConns(),
		AcquiredConns: s.AcquiredConns(),
		IdleConns:     s.IdleConns(),
	}
}

package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ingatatech/e-learning-sub003/internal/config"
)

// PostgresPingTimeout bounds the startup ping and the /healthz probe.
const PostgresPingTimeout = 5 * time.Second

// postgresPool fills the pool settings left at zero in config.
func postgresPool(p config.DBPoolConfig) config.DBPoolConfig {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = 25
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = min(10, p.MaxOpenConns)
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = 30 * time.Minute
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = 5 * time.Minute
	}
	return p
}

// OpenPostgres opens the pool behind the users and audit repositories and pings it.
// driverName is "pgx" in production (pgx stdlib). The DSN carries the password; never log it.
func OpenPostgres(ctx context.Context, driverName string, cfg config.DBConfig) (*sql.DB, error) {
	pool := postgresPool(cfg.Pool)

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database %q: %w", driverName, cfg.Name, err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := HealthCheck(ctx, db, PostgresPingTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database %q at %s:%d: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}
	return db, nil
}

// HealthCheck pings the DB with a timeout.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	journalMaxConns     = 16
	journalConnIdleTime = 5 * time.Minute
	dialCheckTimeout    = 5 * time.Second
)

// NewPostgresPool opens the pool backing the Postgres journal. Every account
// worker holds at most one connection while it appends, so the pool stays
// small.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConns > journalMaxConns {
		cfg.MaxConns = journalMaxConns
	}
	cfg.MaxConnIdleTime = journalConnIdleTime
	cfg.ConnConfig.RuntimeParams["application_name"] = "bankjournal"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dialCheckTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

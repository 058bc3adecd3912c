package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/bankjournal/internal/config"
	"github.com/congo-pay/bankjournal/internal/journal"
)

// Resources groups the external connections the process owns.
type Resources struct {
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Journal journal.Journal

	closers []func() error
}

// Open connects the journal backend selected by cfg and, when configured,
// Redis. On error everything opened so far is closed again.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Resources, error) {
	res := &Resources{}

	switch cfg.JournalBackend {
	case config.BackendPostgres:
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		res.DB = db
		res.closers = append(res.closers, func() error { db.Close(); return nil })

		pj := journal.NewPostgresJournal(db)
		if err := pj.Migrate(ctx); err != nil {
			res.Close()
			return nil, err
		}
		res.Journal = pj
	case config.BackendSQLite:
		sj, err := journal.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, sj.Close)
		res.Journal = sj
	case config.BackendMemory:
		logger.Warn("using in-memory journal, events are lost on restart")
		res.Journal = journal.NewInMemory()
	default:
		return nil, fmt.Errorf("unsupported journal backend %q", cfg.JournalBackend)
	}

	cache, err := NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		res.Close()
		return nil, err
	}
	if cache != nil {
		res.Cache = cache
		res.closers = append(res.closers, cache.Close)
	}

	logger.Info("resources ready",
		slog.String("journal", cfg.JournalBackend),
		slog.Bool("redis", cache != nil),
	)
	return res, nil
}

// Close releases resources in reverse order of opening.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

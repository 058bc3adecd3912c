package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/bankjournal/internal/account"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS account_events (
    account_id  TEXT        NOT NULL,
    seq         BIGINT      NOT NULL,
    event_type  TEXT        NOT NULL,
    payload     JSONB       NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (account_id, seq)
)`

// PostgresJournal persists account events in PostgreSQL.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal constructs a Postgres-backed journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Migrate creates the events table when it does not exist yet.
func (j *PostgresJournal) Migrate(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate account_events: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (j *PostgresJournal) Ping(ctx context.Context) error {
	return j.db.Ping(ctx)
}

// Append stores ev as the next event of accountID inside one transaction.
func (j *PostgresJournal) Append(ctx context.Context, accountID string, ev account.Event) (Record, error) {
	eventType, payload, err := Encode(ev)
	if err != nil {
		return Record{}, err
	}

	tx, err := j.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var head int64
	const headQuery = `SELECT COALESCE(MAX(seq), 0) FROM account_events WHERE account_id = $1`
	if err := tx.QueryRow(ctx, headQuery, accountID).Scan(&head); err != nil {
		return Record{}, fmt.Errorf("read journal head: %w", err)
	}

	rec := Record{
		AccountID:  accountID,
		Seq:        head + 1,
		Type:       eventType,
		Event:      ev,
		RecordedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	const insert = `INSERT INTO account_events (account_id, seq, event_type, payload, recorded_at)
        VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insert, rec.AccountID, rec.Seq, rec.Type, payload, rec.RecordedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrSequenceConflict
		}
		return Record{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("commit event: %w", err)
	}
	return rec, nil
}

// Replay loads every event of accountID ordered by sequence.
func (j *PostgresJournal) Replay(ctx context.Context, accountID string) ([]Record, error) {
	const query = `SELECT seq, event_type, payload, recorded_at
        FROM account_events WHERE account_id = $1 ORDER BY seq`
	rows, err := j.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec := Record{AccountID: accountID}
		var payload []byte
		if err := rows.Scan(&rec.Seq, &rec.Type, &payload, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if rec.Event, err = Decode(rec.Type, payload); err != nil {
			return nil, err
		}
		rec.RecordedAt = rec.RecordedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if err := checkContiguous(records); err != nil {
		return nil, err
	}
	return records, nil
}

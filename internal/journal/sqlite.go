package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/congo-pay/bankjournal/internal/account"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS account_events (
    account_id  TEXT    NOT NULL,
    seq         INTEGER NOT NULL,
    event_type  TEXT    NOT NULL,
    payload     TEXT    NOT NULL,
    recorded_at INTEGER NOT NULL,
    PRIMARY KEY (account_id, seq)
)`

// SQLiteJournal persists account events in a local SQLite file.
type SQLiteJournal struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) a SQLite journal at path.
func OpenSQLite(path string) (*SQLiteJournal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; the head read and insert must not interleave.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate account_events: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Close closes the SQLite handle.
func (j *SQLiteJournal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Ping checks that the database file is reachable.
func (j *SQLiteJournal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Append stores ev as the next event of accountID inside one transaction.
func (j *SQLiteJournal) Append(ctx context.Context, accountID string, ev account.Event) (Record, error) {
	eventType, payload, err := Encode(ev)
	if err != nil {
		return Record{}, err
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	var head int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM account_events WHERE account_id = ?`, accountID).Scan(&head); err != nil {
		return Record{}, fmt.Errorf("read journal head: %w", err)
	}

	rec := Record{
		AccountID:  accountID,
		Seq:        head + 1,
		Type:       eventType,
		Event:      ev,
		RecordedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO account_events (account_id, seq, event_type, payload, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		rec.AccountID, rec.Seq, rec.Type, string(payload), rec.RecordedAt.UnixMilli(),
	); err != nil {
		if isConstraintError(err) {
			return Record{}, ErrSequenceConflict
		}
		return Record{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit event: %w", err)
	}
	return rec, nil
}

// Replay loads every event of accountID ordered by sequence.
func (j *SQLiteJournal) Replay(ctx context.Context, accountID string) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, event_type, payload, recorded_at FROM account_events WHERE account_id = ? ORDER BY seq`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec := Record{AccountID: accountID}
		var payload string
		var millis int64
		if err := rows.Scan(&rec.Seq, &rec.Type, &payload, &millis); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if rec.Event, err = Decode(rec.Type, []byte(payload)); err != nil {
			return nil, err
		}
		rec.RecordedAt = time.UnixMilli(millis).UTC()
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

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ Journal = (*SQLiteJournal)(nil)
	_ Journal = (*PostgresJournal)(nil)
)

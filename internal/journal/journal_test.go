package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/bankjournal/internal/account"
)

func testJournalContract(t *testing.T, j Journal) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()

	empty, err := j.Replay(ctx, id)
	if err != nil {
		t.Fatalf("replay empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty history, got %d records", len(empty))
	}

	events := []account.Event{
		account.AccountCreated{Account: account.Account{ID: id, Owner: "alice", Currency: "USD", Balance: decimal.RequireFromString("100.0")}},
		account.BalanceAdjusted{Amount: decimal.RequireFromString("-40.0")},
		account.BalanceAdjusted{Amount: decimal.RequireFromString("0.35")},
	}
	for i, ev := range events {
		rec, err := j.Append(ctx, id, ev)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if rec.Seq != int64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, rec.Seq)
		}
		if rec.Type != ev.EventType() {
			t.Fatalf("expected type %s, got %s", ev.EventType(), rec.Type)
		}
	}

	// another account must not leak into this history
	if _, err := j.Append(ctx, uuid.NewString(), account.BalanceAdjusted{Amount: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("append other account: %v", err)
	}

	records, err := j.Replay(ctx, id)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(records) != len(events) {
		t.Fatalf("expected %d records, got %d", len(events), len(records))
	}
	for i, rec := range records {
		if rec.Seq != int64(i+1) || rec.AccountID != id {
			t.Fatalf("record %d out of order: %+v", i, rec)
		}
	}

	state := account.Replay(account.State{}, Events(records))
	if !state.Active() || state.Account.Owner != "alice" {
		t.Fatalf("unexpected replayed state: %+v", state)
	}
	if !state.Account.Balance.Equal(decimal.RequireFromString("60.35")) {
		t.Fatalf("expected balance 60.35, got %s", state.Account.Balance)
	}
}

func TestInMemoryJournal(t *testing.T) {
	testJournalContract(t, NewInMemory())
}

func TestInMemoryJournal_FailNextAppend(t *testing.T) {
	j := NewInMemory()
	ctx := context.Background()
	boom := errors.New("disk full")

	FailNextAppend(j, boom)
	if _, err := j.Append(ctx, "acc", account.BalanceAdjusted{Amount: decimal.NewFromInt(1)}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	records, _ := j.Replay(ctx, "acc")
	if len(records) != 0 {
		t.Fatalf("failed append must not store anything, got %d", len(records))
	}

	rec, err := j.Append(ctx, "acc", account.BalanceAdjusted{Amount: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("append after failure: %v", err)
	}
	if rec.Seq != 1 {
		t.Fatalf("expected seq 1 after failed append, got %d", rec.Seq)
	}
}

func TestInMemoryJournal_ConcurrentStreams(t *testing.T) {
	j := NewInMemory()
	ctx := context.Background()

	const streams = 8
	const perStream = 25

	var wg sync.WaitGroup
	for s := 0; s < streams; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			id := fmt.Sprintf("acc-%d", s)
			for i := 0; i < perStream; i++ {
				if _, err := j.Append(ctx, id, account.BalanceAdjusted{Amount: decimal.NewFromInt(1)}); err != nil {
					t.Errorf("append %s/%d: %v", id, i, err)
				}
			}
		}(s)
	}
	wg.Wait()

	for s := 0; s < streams; s++ {
		records, err := j.Replay(ctx, fmt.Sprintf("acc-%d", s))
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if len(records) != perStream {
			t.Fatalf("expected %d records, got %d", perStream, len(records))
		}
	}
}

func TestSQLiteJournal(t *testing.T) {
	j, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer j.Close()

	testJournalContract(t, j)
}

func TestSQLiteJournal_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	created := account.AccountCreated{Account: account.Account{ID: "acc", Owner: "bob", Currency: "EUR", Balance: decimal.NewFromInt(5)}}
	if _, err := j.Append(ctx, "acc", created); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.Replay(ctx, "acc")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(records) != 1 || records[0].Type != account.TypeAccountCreated {
		t.Fatalf("unexpected records after reopen: %+v", records)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestPostgresJournal(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	j := NewPostgresJournal(pool)
	if err := j.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	testJournalContract(t, j)
}

func TestDecodeUnknownType(t *testing.T) {
	if _, err := Decode("account.closed", []byte(`{}`)); !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestCheckContiguous(t *testing.T) {
	gap := []Record{{Seq: 1}, {Seq: 3}}
	if err := checkContiguous(gap); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for gap, got %v", err)
	}
	dup := []Record{{Seq: 1}, {Seq: 1}}
	if err := checkContiguous(dup); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for duplicate, got %v", err)
	}
}

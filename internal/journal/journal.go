package journal

import (
	"context"
	"errors"
	"time"

	"github.com/congo-pay/bankjournal/internal/account"
)

var (
	// ErrUnknownEventType is returned when a stored event type has no decoder.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrSequenceConflict occurs when another writer appended to the same
	// account between reading the head and inserting.
	ErrSequenceConflict = errors.New("journal sequence conflict")

	// ErrCorrupt indicates a replayed history with gaps or duplicates.
	ErrCorrupt = errors.New("journal history is not contiguous")
)

// Record is one committed event together with its position in the account's
// history. Seq starts at 1 and has no gaps.
type Record struct {
	AccountID  string        `json:"account_id"`
	Seq        int64         `json:"seq"`
	Type       string        `json:"type"`
	Event      account.Event `json:"event"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Journal defines the contract implemented by event log backends (memory,
// Postgres, SQLite).
type Journal interface {
	// Append durably stores ev after every event previously appended for
	// accountID. It either commits fully or returns an error.
	Append(ctx context.Context, accountID string, ev account.Event) (Record, error)
	// Replay returns the full history of accountID in append order.
	Replay(ctx context.Context, accountID string) ([]Record, error)
}

// Events strips the journal metadata from records.
func Events(records []Record) []account.Event {
	out := make([]account.Event, 0, len(records))
	for _, r := range records {
		out = append(out, r.Event)
	}
	return out
}

func checkContiguous(records []Record) error {
	for i, r := range records {
		if r.Seq != int64(i+1) {
			return ErrCorrupt
		}
	}
	return nil
}

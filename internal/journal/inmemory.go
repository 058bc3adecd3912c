package journal

import (
	"context"
	"sync"
	"time"

	"github.com/congo-pay/bankjournal/internal/account"
)

type inMemoryJournal struct {
	mu        sync.RWMutex
	streams   map[string][]Record
	appendErr error
}

// NewInMemory creates a concurrency-safe in-memory journal useful for tests
// and local development. Nothing survives a restart.
func NewInMemory() Journal {
	return &inMemoryJournal{streams: make(map[string][]Record)}
}

func (j *inMemoryJournal) Append(ctx context.Context, accountID string, ev account.Event) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	// Round-trip through the codec so the memory backend rejects exactly
	// what the SQL backends would.
	eventType, payload, err := Encode(ev)
	if err != nil {
		return Record{}, err
	}
	decoded, err := Decode(eventType, payload)
	if err != nil {
		return Record{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.appendErr != nil {
		err := j.appendErr
		j.appendErr = nil
		return Record{}, err
	}

	stream := j.streams[accountID]
	rec := Record{
		AccountID:  accountID,
		Seq:        int64(len(stream) + 1),
		Type:       eventType,
		Event:      decoded,
		RecordedAt: time.Now().UTC(),
	}
	j.streams[accountID] = append(stream, rec)
	return rec, nil
}

func (j *inMemoryJournal) Replay(ctx context.Context, accountID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	stream := j.streams[accountID]
	out := make([]Record, len(stream))
	copy(out, stream)
	return out, nil
}

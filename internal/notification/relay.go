package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/congo-pay/bankjournal/internal/account"
	"github.com/congo-pay/bankjournal/internal/journal"
)

const (
	publishTimeout        = 2 * time.Second
	defaultRelayQueueSize = 1024
)

// Relay forwards committed events to a Notifier from its own goroutine. The
// queue is bounded: when the notifier falls behind, new messages are dropped
// and logged rather than slowing down account workers.
type Relay struct {
	notifier Notifier
	logger   *slog.Logger
	queue    chan Message
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRelay starts a relay delivering to n with room for size pending messages.
func NewRelay(n Notifier, logger *slog.Logger, size int) *Relay {
	if size <= 0 {
		size = defaultRelayQueueSize
	}
	r := &Relay{
		notifier: n,
		logger:   logger,
		queue:    make(chan Message, size),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

// Hook returns a commit callback for account workers. It never blocks.
func (r *Relay) Hook() func(journal.Record, account.State) {
	return func(rec journal.Record, state account.State) {
		msg, err := FromCommit(rec, state)
		if err != nil {
			r.logger.Warn("build notification", slog.String("account_id", rec.AccountID), slog.Any("error", err))
			return
		}
		r.enqueue(msg)
	}
}

func (r *Relay) enqueue(msg Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- msg:
	default:
		r.logger.Warn("notification queue full, dropping",
			slog.String("account_id", msg.AccountID),
			slog.Int64("seq", msg.Seq),
		)
	}
}

func (r *Relay) run() {
	defer close(r.done)
	for msg := range r.queue {
		if r.notifier == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := r.notifier.Send(ctx, msg); err != nil {
			r.logger.Warn("send notification",
				slog.String("account_id", msg.AccountID),
				slog.Int64("seq", msg.Seq),
				slog.Any("error", err),
			)
		}
		cancel()
	}
}

// Close stops accepting messages and waits until the queued ones have been
// sent, or ctx ends.
func (r *Relay) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

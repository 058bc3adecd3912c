package actor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/congo-pay/bankjournal/internal/account"
	"github.com/congo-pay/bankjournal/internal/journal"
)

const maxSubmitAttempts = 2

// Registry maps account identifiers to their workers. The lock only guards
// the map; commands for different accounts never wait on each other.
type Registry struct {
	journal journal.Journal
	logger  *slog.Logger
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	workers map[string]*Worker
	closed  bool
}

// NewRegistry builds an empty registry backed by j.
func NewRegistry(j journal.Journal, logger *slog.Logger, opts Options) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		journal: j,
		logger:  logger,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		workers: make(map[string]*Worker),
	}
}

// Submit routes cmd to the worker of accountID, starting it if needed.
func (r *Registry) Submit(ctx context.Context, accountID string, cmd account.Command) (account.Response, error) {
	for attempt := 1; ; attempt++ {
		w, err := r.acquire(accountID)
		if err != nil {
			return nil, err
		}
		req, err := w.post(ctx, cmd)
		w.pins.Add(-1)
		if err == nil {
			return w.await(ctx, req)
		}
		// A worker discarded after a failed replay refuses commands; retry
		// once with a fresh one.
		if !errors.Is(err, ErrStopped) || attempt == maxSubmitAttempts {
			return nil, err
		}
	}
}

// Len reports how many account workers are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// acquire returns the worker of accountID, starting it if needed, and pins
// it against retirement until the caller has enqueued.
func (r *Registry) acquire(accountID string) (*Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrStopped
	}
	w, ok := r.workers[accountID]
	if !ok {
		w = NewWorker(accountID, r.journal, r.logger, r.opts)
		r.workers[accountID] = w
		w.Start(r.ctx, Hooks{ReplayFailed: r.discard, Uninitialized: r.retire})
	}
	w.pins.Add(1)
	return w, nil
}

// discard drops a worker whose replay failed so the next command starts over.
func (r *Registry) discard(w *Worker, _ error) {
	r.mu.Lock()
	if cur, ok := r.workers[w.ID()]; ok && cur == w {
		delete(r.workers, w.ID())
	}
	r.mu.Unlock()
	go w.Stop()
}

// retire drops the worker of an account that does not exist, so lookups of
// unknown ids leave nothing behind. Workers with a pinned sender or queued
// commands are kept; with neither, nothing can reach the mailbox any more.
func (r *Registry) retire(w *Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.workers[w.ID()]; !ok || cur != w {
		return
	}
	if w.pins.Load() > 0 || len(w.mailbox) > 0 {
		return
	}
	delete(r.workers, w.ID())
	w.Stop()
}

// Close stops admitting commands and waits until every worker has drained
// its mailbox, or ctx ends.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	workers := make([]*Worker, 0, len(r.workers))
	for _, w := range r.workers {
		workers = append(workers, w)
	}
	r.mu.Unlock()

	for _, w := range workers {
		w.Stop()
	}
	defer r.cancel()
	for _, w := range workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

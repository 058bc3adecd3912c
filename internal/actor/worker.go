package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/congo-pay/bankjournal/internal/account"
	"github.com/congo-pay/bankjournal/internal/journal"
)

var (
	// ErrStopped is returned when a command is submitted to a worker that no
	// longer accepts commands.
	ErrStopped = errors.New("account worker stopped")

	// ErrUnavailable is returned for commands sent to a worker whose startup
	// replay failed.
	ErrUnavailable = errors.New("account unavailable")

	// ErrInternal is returned when processing a command panicked.
	ErrInternal = errors.New("account worker internal error")
)

const defaultMailboxSize = 64

// CommitHook observes every event the worker has committed and applied. It
// runs on the worker goroutine after the caller has been answered, so the
// next command for the account waits until it returns. Hooks doing I/O must
// hand the work off instead of blocking.
type CommitHook func(rec journal.Record, state account.State)

// Hooks lets the owner of a worker react to its lifecycle. Both callbacks run
// on the worker goroutine.
type Hooks struct {
	// ReplayFailed is called once when the startup replay fails.
	ReplayFailed func(w *Worker, err error)
	// Uninitialized is called after a command left the account uncreated.
	// It runs before the command is answered.
	Uninitialized func(w *Worker)
}

// Options tune worker behaviour.
type Options struct {
	MailboxSize int
	OnCommit    CommitHook
}

type result struct {
	resp account.Response
	err  error
}

type request struct {
	ctx   context.Context
	cmd   account.Command
	reply chan result
}

// Worker owns the in-memory state of one account. Commands are processed one
// at a time in arrival order by a single goroutine.
type Worker struct {
	id      string
	journal journal.Journal
	logger  *slog.Logger
	hook    CommitHook

	mailbox chan request

	// senders that looked the worker up in a registry and have not
	// finished enqueueing yet
	pins atomic.Int32

	mu      sync.RWMutex
	stopped bool
	quit    chan struct{}
	done    chan struct{}

	// owned by the run goroutine
	state     account.State
	replayErr error
}

// NewWorker builds a worker for accountID. Call Start before submitting.
func NewWorker(accountID string, j journal.Journal, logger *slog.Logger, opts Options) *Worker {
	size := opts.MailboxSize
	if size <= 0 {
		size = defaultMailboxSize
	}
	return &Worker{
		id:      accountID,
		journal: j,
		logger:  logger.With(slog.String("account_id", accountID)),
		hook:    opts.OnCommit,
		mailbox: make(chan request, size),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID returns the account identifier the worker owns.
func (w *Worker) ID() string {
	return w.id
}

// Start launches the worker goroutine. It replays the journal before taking
// the first command; commands submitted meanwhile wait in the mailbox.
func (w *Worker) Start(ctx context.Context, hooks Hooks) {
	go w.run(ctx, hooks)
}

// Submit delivers cmd and waits for its single reply. If ctx ends while the
// command is queued or running, Submit returns ctx.Err() but the command still
// runs to completion.
func (w *Worker) Submit(ctx context.Context, cmd account.Command) (account.Response, error) {
	req, err := w.post(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return w.await(ctx, req)
}

func (w *Worker) post(ctx context.Context, cmd account.Command) (request, error) {
	req := request{ctx: ctx, cmd: cmd, reply: make(chan result, 1)}
	if err := w.enqueue(ctx, req); err != nil {
		return request{}, err
	}
	return req, nil
}

func (w *Worker) await(ctx context.Context, req request) (account.Response, error) {
	select {
	case res := <-req.reply:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Worker) enqueue(ctx context.Context, req request) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.mailbox <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new commands. Commands already queued are still processed.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.stopped = true
		close(w.quit)
	}
}

// Done is closed once the worker has drained its mailbox and exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run(ctx context.Context, hooks Hooks) {
	defer close(w.done)

	if err := w.replay(ctx); err != nil {
		w.replayErr = err
		w.logger.Error("replay failed", slog.Any("error", err))
		if hooks.ReplayFailed != nil {
			hooks.ReplayFailed(w, err)
		}
	}

	for {
		select {
		case req := <-w.mailbox:
			w.dispatch(req, hooks)
		case <-w.quit:
			for {
				select {
				case req := <-w.mailbox:
					w.dispatch(req, hooks)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) replay(ctx context.Context) error {
	records, err := w.journal.Replay(ctx, w.id)
	if err != nil {
		return err
	}
	w.state = account.Replay(account.State{}, journal.Events(records))
	w.logger.Debug("account recovered",
		slog.Int("events", len(records)),
		slog.String("status", w.state.Status.String()),
	)
	return nil
}

func (w *Worker) dispatch(req request, hooks Hooks) {
	if w.replayErr != nil {
		req.reply <- result{err: fmt.Errorf("%w: %v", ErrUnavailable, w.replayErr)}
		return
	}

	res, rec := w.handle(req)
	if !w.state.Active() && hooks.Uninitialized != nil {
		hooks.Uninitialized(w)
	}
	req.reply <- res

	if rec != nil && w.hook != nil {
		w.hook(*rec, w.state)
	}
}

// handle decides, persists if needed, applies and returns the reply. The
// state only changes after a successful append.
func (w *Worker) handle(req request) (res result, committed *journal.Record) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("command panicked", slog.String("command", account.CommandName(req.cmd)), slog.Any("panic", r))
			res, committed = result{err: fmt.Errorf("%w: %v", ErrInternal, r)}, nil
		}
	}()

	decision := account.Decide(w.id, w.state, req.cmd)
	if decision.Err != nil {
		return result{err: decision.Err}, nil
	}
	if !decision.Persists() {
		if r, ok := decision.Reply.(account.BalanceAdjustedResponse); ok && r.Rejected {
			w.logger.Info("adjustment rejected", slog.String("reason", string(r.Reason)))
		}
		return result{resp: decision.Reply}, nil
	}

	// Once admitted a command is not cancelled, so the append must outlive
	// the caller's context.
	rec, err := w.journal.Append(context.WithoutCancel(req.ctx), w.id, decision.Event)
	if err != nil {
		w.logger.Error("append failed",
			slog.String("command", account.CommandName(req.cmd)),
			slog.String("event", decision.Event.EventType()),
			slog.Any("error", err),
		)
		return result{err: fmt.Errorf("%w: %w", account.ErrPersistence, err)}, nil
	}

	w.state = account.Apply(w.state, decision.Event)
	return result{resp: account.Acknowledge(w.state, req.cmd)}, &rec
}

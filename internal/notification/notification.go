package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/congo-pay/bankjournal/internal/account"
	"github.com/congo-pay/bankjournal/internal/journal"
)

// Message describes a committed account event for downstream consumers.
type Message struct {
	Kind       string          `json:"kind"`
	AccountID  string          `json:"account_id"`
	Seq        int64           `json:"seq"`
	Balance    string          `json:"balance"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// FromCommit builds a message from a committed record and the state after it
// was applied.
func FromCommit(rec journal.Record, state account.State) (Message, error) {
	_, payload, err := journal.Encode(rec.Event)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:       rec.Type,
		AccountID:  rec.AccountID,
		Seq:        rec.Seq,
		Balance:    state.Account.Balance.String(),
		Payload:    payload,
		OccurredAt: rec.RecordedAt,
	}, nil
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"account_id", message.AccountID,
		"seq", message.Seq,
		"balance", message.Balance,
	)
	return nil
}

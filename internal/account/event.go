package account

import "github.com/shopspring/decimal"

// Event type names as they are stored in the journal.
const (
	TypeAccountCreated  = "account.created"
	TypeBalanceAdjusted = "account.balance_adjusted"
)

// Event is an immutable fact about an account. Events are the only thing
// that is ever persisted.
type Event interface {
	EventType() string
}

// AccountCreated carries the full initial snapshot of the account.
type AccountCreated struct {
	Account Account `json:"account"`
}

// BalanceAdjusted carries the delta only; the balance itself is derived.
type BalanceAdjusted struct {
	Amount decimal.Decimal `json:"amount"`
}

// EventType implements Event.
func (AccountCreated) EventType() string { return TypeAccountCreated }

// EventType implements Event.
func (BalanceAdjusted) EventType() string { return TypeBalanceAdjusted }

package account

import "github.com/shopspring/decimal"

// Command asks an account worker to change or read its state.
type Command interface {
	commandName() string
}

// CreateAccount opens the account with an initial snapshot.
type CreateAccount struct {
	Owner          string
	Currency       string
	InitialBalance decimal.Decimal
}

// AdjustBalance deposits (positive amount) or withdraws (negative amount).
type AdjustBalance struct {
	Amount decimal.Decimal
}

// GetAccount reads the current account without producing an event.
type GetAccount struct{}

func (CreateAccount) commandName() string { return "create_account" }
func (AdjustBalance) commandName() string { return "adjust_balance" }
func (GetAccount) commandName() string    { return "get_account" }

// CommandName returns a short label for logs and metrics.
func CommandName(cmd Command) string {
	if cmd == nil {
		return "unknown"
	}
	return cmd.commandName()
}

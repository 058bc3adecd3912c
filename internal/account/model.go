package account

import "github.com/shopspring/decimal"

// Account is the current state of a single account, derived from its events.
type Account struct {
	ID       string          `json:"id"`
	Owner    string          `json:"owner"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

// Status tells whether an account has been created yet.
type Status int

const (
	// StatusUninitialized is the state before any AccountCreated event was applied.
	StatusUninitialized Status = iota
	// StatusActive is the state after the account was created.
	StatusActive
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	default:
		return "uninitialized"
	}
}

// State is what an account worker holds in memory. The zero value is an
// uninitialized account, which is not the same as an active account with a
// zero balance.
type State struct {
	Status  Status
	Account Account
}

// Active reports whether the account has been created.
func (s State) Active() bool {
	return s.Status == StatusActive
}

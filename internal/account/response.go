package account

// Response is the single reply a command receives.
type Response interface {
	responseName() string
}

// RejectReason explains why an adjustment was not persisted.
type RejectReason string

const (
	// RejectInsufficientFunds is returned when the adjustment would overdraw the account.
	RejectInsufficientFunds RejectReason = "insufficient_funds"
	// RejectAccountNotFound is returned when the account was never created.
	RejectAccountNotFound RejectReason = "account_not_found"
)

// AccountCreatedResponse acknowledges a committed AccountCreated event.
type AccountCreatedResponse struct {
	ID string
}

// BalanceAdjustedResponse holds either the updated account or a rejection.
type BalanceAdjustedResponse struct {
	Account  Account
	Rejected bool
	Reason   RejectReason
}

// AccountResponse answers GetAccount. Found is false for an account that was
// never created.
type AccountResponse struct {
	Account Account
	Found   bool
}

func (AccountCreatedResponse) responseName() string  { return "account_created" }
func (BalanceAdjustedResponse) responseName() string { return "balance_adjusted" }
func (AccountResponse) responseName() string         { return "account" }

package account

// Decision is the outcome of Decide. When Event is nil nothing is persisted
// and Reply is sent as is; otherwise the event must be appended and applied
// before Acknowledge produces the reply.
type Decision struct {
	Event Event
	Reply Response
	Err   error
}

// Persists reports whether the decision carries an event to append.
func (d Decision) Persists() bool {
	return d.Event != nil
}

// Decide is a pure function of the current state and a command. id is the
// identifier of the account the worker owns.
func Decide(id string, s State, cmd Command) Decision {
	switch c := cmd.(type) {
	case CreateAccount:
		// A negative initial balance is accepted here; creation is not guarded.
		return Decision{Event: AccountCreated{Account: Account{
			ID:       id,
			Owner:    c.Owner,
			Currency: c.Currency,
			Balance:  c.InitialBalance,
		}}}
	case AdjustBalance:
		if !s.Active() {
			return Decision{Reply: BalanceAdjustedResponse{Rejected: true, Reason: RejectAccountNotFound}}
		}
		candidate := s.Account.Balance.Add(c.Amount)
		if candidate.IsNegative() {
			return Decision{Reply: BalanceAdjustedResponse{Rejected: true, Reason: RejectInsufficientFunds}}
		}
		return Decision{Event: BalanceAdjusted{Amount: c.Amount}}
	case GetAccount:
		if !s.Active() {
			return Decision{Reply: AccountResponse{}}
		}
		return Decision{Reply: AccountResponse{Account: s.Account, Found: true}}
	default:
		return Decision{Err: ErrUnknownCommand}
	}
}

// Acknowledge builds the reply for a command whose event has been committed
// and applied; s is the state after Apply. Commands that never persist have
// no acknowledgement and yield nil.
func Acknowledge(s State, cmd Command) Response {
	switch cmd.(type) {
	case CreateAccount:
		return AccountCreatedResponse{ID: s.Account.ID}
	case AdjustBalance:
		return BalanceAdjustedResponse{Account: s.Account}
	default:
		return nil
	}
}

package account

// Apply folds one event into the state. It is total: unknown events leave the
// state unchanged.
func Apply(s State, ev Event) State {
	switch e := ev.(type) {
	case AccountCreated:
		return State{Status: StatusActive, Account: e.Account}
	case *AccountCreated:
		return Apply(s, *e)
	case BalanceAdjusted:
		s.Account.Balance = s.Account.Balance.Add(e.Amount)
		return s
	case *BalanceAdjusted:
		return Apply(s, *e)
	default:
		return s
	}
}

// Replay folds events, in order, starting from s. Pass the zero State to
// rebuild an account from its full history.
func Replay(s State, events []Event) State {
	for _, ev := range events {
		s = Apply(s, ev)
	}
	return s
}

package account

import "errors"

var (
	// ErrPersistence marks a command whose event could not be durably committed.
	// The in-memory state is left exactly as it was before the command.
	ErrPersistence = errors.New("persistence failure")

	// ErrUnknownCommand is returned for command values this package does not define.
	ErrUnknownCommand = errors.New("unknown command")
)

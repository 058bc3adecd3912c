package banking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/bankjournal/internal/account"
	"github.com/congo-pay/bankjournal/internal/journal"
)

var (
	// ErrNotFound indicates the account was never created.
	ErrNotFound = errors.New("account not found")
	// ErrInsufficientFunds indicates an adjustment was rejected because it
	// would make the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Dispatcher routes a command to the worker owning accountID.
type Dispatcher interface {
	Submit(ctx context.Context, accountID string, cmd account.Command) (account.Response, error)
}

// Service exposes account operations on top of the account workers.
type Service struct {
	accounts Dispatcher
	journal  journal.Journal
	logger   *slog.Logger
}

// NewService builds an account service instance.
func NewService(accounts Dispatcher, j journal.Journal, logger *slog.Logger) *Service {
	return &Service{accounts: accounts, journal: j, logger: logger}
}

// CreateInput captures data required to open an account.
type CreateInput struct {
	Owner          string
	Currency       string
	InitialBalance decimal.Decimal
}

// Create opens a new account under a freshly generated identifier.
func (s *Service) Create(ctx context.Context, input CreateInput) (string, error) {
	owner := strings.TrimSpace(input.Owner)
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if owner == "" {
		return "", fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if len(currency) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3 letter code", ErrInvalidInput)
	}

	id := uuid.NewString()
	if input.InitialBalance.IsNegative() {
		s.logger.Warn("account created with negative initial balance",
			slog.String("account_id", id),
			slog.String("initial_balance", input.InitialBalance.String()),
		)
	}

	resp, err := s.accounts.Submit(ctx, id, account.CreateAccount{
		Owner:          owner,
		Currency:       currency,
		InitialBalance: input.InitialBalance,
	})
	if err != nil {
		return "", err
	}
	created, ok := resp.(account.AccountCreatedResponse)
	if !ok {
		return "", fmt.Errorf("unexpected response %T", resp)
	}
	return created.ID, nil
}

// Get returns the current account.
func (s *Service) Get(ctx context.Context, id string) (account.Account, error) {
	if err := validateID(id); err != nil {
		return account.Account{}, err
	}
	resp, err := s.accounts.Submit(ctx, id, account.GetAccount{})
	if err != nil {
		return account.Account{}, err
	}
	got, ok := resp.(account.AccountResponse)
	if !ok {
		return account.Account{}, fmt.Errorf("unexpected response %T", resp)
	}
	if !got.Found {
		return account.Account{}, ErrNotFound
	}
	return got.Account, nil
}

// Adjust deposits a positive amount or withdraws a negative one.
func (s *Service) Adjust(ctx context.Context, id string, amount decimal.Decimal) (account.Account, error) {
	if err := validateID(id); err != nil {
		return account.Account{}, err
	}
	if amount.IsZero() {
		return account.Account{}, fmt.Errorf("%w: amount must not be zero", ErrInvalidInput)
	}
	resp, err := s.accounts.Submit(ctx, id, account.AdjustBalance{Amount: amount})
	if err != nil {
		return account.Account{}, err
	}
	adj, ok := resp.(account.BalanceAdjustedResponse)
	if !ok {
		return account.Account{}, fmt.Errorf("unexpected response %T", resp)
	}
	if adj.Rejected {
		switch adj.Reason {
		case account.RejectAccountNotFound:
			return account.Account{}, ErrNotFound
		default:
			return account.Account{}, ErrInsufficientFunds
		}
	}
	return adj.Account, nil
}

// History returns every committed event of the account in order.
func (s *Service) History(ctx context.Context, id string) ([]journal.Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	records, err := s.journal.Replay(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// validateID accepts only the canonical lowercase hyphenated form, the one
// Create hands out. Other spellings uuid.Parse allows would address a
// different, empty stream.
func validateID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: malformed account id", ErrInvalidInput)
	}
	if u.String() != id {
		return fmt.Errorf("%w: account id must be a lowercase hyphenated uuid", ErrInvalidInput)
	}
	return nil
}

package banking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/bankjournal/internal/account"
	"github.com/congo-pay/bankjournal/internal/actor"
	"github.com/congo-pay/bankjournal/internal/journal"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Owner          string          `json:"owner"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type adjustRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type accountResponse struct {
	ID       string          `json:"id"`
	Owner    string          `json:"owner"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

type eventResponse struct {
	Seq        int64         `json:"seq"`
	Type       string        `json:"type"`
	Event      account.Event `json:"event"`
	RecordedAt time.Time     `json:"recorded_at"`
}

func toResponse(a account.Account) accountResponse {
	return accountResponse{ID: a.ID, Owner: a.Owner, Currency: a.Currency, Balance: a.Balance}
}

// Create opens an account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id, err := h.service.Create(c.UserContext(), CreateInput{
		Owner:          req.Owner,
		Currency:       req.Currency,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		return httpError(err)
	}
	c.Location(c.BaseURL() + "/api/v1/accounts/" + id)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": id})
}

// Get returns the current account.
func (h *Handler) Get(c *fiber.Ctx) error {
	acct, err := h.service.Get(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(acct))
}

// Adjust applies a balance adjustment.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Amount == nil {
		return fiber.NewError(http.StatusBadRequest, "amount is required")
	}
	acct, err := h.service.Adjust(c.UserContext(), c.Params("accountId"), *req.Amount)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(acct))
}

// Events lists the account's committed events.
func (h *Handler) Events(c *fiber.Ctx) error {
	records, err := h.service.History(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return httpError(err)
	}
	out := make([]eventResponse, 0, len(records))
	for _, r := range records {
		out = append(out, eventResponse{Seq: r.Seq, Type: r.Type, Event: r.Event, RecordedAt: r.RecordedAt})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"account_id": c.Params("accountId"), "events": out})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, account.ErrPersistence),
		errors.Is(err, actor.ErrUnavailable),
		errors.Is(err, actor.ErrStopped):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, journal.ErrCorrupt):
		return fiber.NewError(http.StatusInternalServerError, "account history is corrupt")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

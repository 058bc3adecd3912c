package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/congo-pay/bankjournal/internal/banking"
)

// RegisterAccountRoutes wires account endpoints. adjustLimit guards the
// balance mutation route per account.
func RegisterAccountRoutes(r fiber.Router, h *banking.Handler, adjustLimit fiber.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts/:accountId", h.Get)
	r.Put("/accounts/:accountId/balance", adjustLimit, h.Adjust)
	r.Get("/accounts/:accountId/events", h.Events)
}

// accountKey buckets rate limits by the canonical account id so spelling
// variants of one id share a bucket.
func accountKey(c *fiber.Ctx) string {
	id := c.Params("accountId")
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/bankjournal/internal/banking"
	"github.com/congo-pay/bankjournal/internal/config"
	"github.com/congo-pay/bankjournal/internal/journal"
	"github.com/congo-pay/bankjournal/internal/middleware"
)

const adjustmentsPerMinute = 120

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	Cache    *redis.Client
	Journal  journal.Journal
	Accounts banking.Dispatcher
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Journal == nil || d.Accounts == nil {
		return fmt.Errorf("journal and account dispatcher are required")
	}
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("",
		middleware.APIKey(d.Cfg.APIKeyHash),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	)

	svc := banking.NewService(d.Accounts, d.Journal, d.Logger)
	adjustLimit := middleware.RateLimit(d.Cache, "adjust", adjustmentsPerMinute, accountKey)
	RegisterAccountRoutes(protected, banking.NewHandler(svc), adjustLimit)

	return nil
}

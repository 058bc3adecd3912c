package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bankjournal/internal/actor"
	"github.com/congo-pay/bankjournal/internal/config"
	"github.com/congo-pay/bankjournal/internal/infra"
	"github.com/congo-pay/bankjournal/internal/routes"
)

// Server wraps the Fiber application and the account registry it serves.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	registry *actor.Registry
	logger   *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, res *infra.Resources, registry *actor.Registry, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: !cfg.IsDev(),
		ErrorHandler:          errorHandler,
	})

	err := routes.Setup(app, routes.Deps{
		Cfg:      cfg,
		Cache:    res.Cache,
		Journal:  res.Journal,
		Accounts: registry,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, registry: registry, logger: logger}, nil
}

// App exposes the underlying fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops accepting requests, then lets every account worker finish
// the commands already in its mailbox.
func (s *Server) Shutdown(ctx context.Context) error {
	httpErr := s.app.ShutdownWithContext(ctx)
	if err := s.registry.Close(ctx); err != nil {
		s.logger.Error("account workers did not drain", slog.Any("error", err))
		return errors.Join(httpErr, err)
	}
	return httpErr
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

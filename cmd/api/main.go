package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/congo-pay/bankjournal/internal/actor"
	"github.com/congo-pay/bankjournal/internal/config"
	"github.com/congo-pay/bankjournal/internal/infra"
	"github.com/congo-pay/bankjournal/internal/logging"
	"github.com/congo-pay/bankjournal/internal/notification"
	"github.com/congo-pay/bankjournal/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	res, err := infra.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open resources", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("close resources", "error", err)
		}
	}()

	var notifier notification.Notifier = notification.NewLoggerNotifier(logger)
	if res.Cache != nil {
		notifier = notification.NewRedisNotifier(res.Cache, cfg.EventsChannel)
	}

	relay := notification.NewRelay(notifier, logger, cfg.NotifyQueueSize)

	registry := actor.NewRegistry(res.Journal, logger, actor.Options{
		MailboxSize: cfg.MailboxSize,
		OnCommit:    relay.Hook(),
	})

	srv, err := server.New(cfg, res, registry, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()
	logger.Info("server started", "address", cfg.Address(), "journal", cfg.JournalBackend)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return
	}
	if err := relay.Close(shutdownCtx); err != nil {
		logger.Warn("pending notifications not sent", "error", err)
	}

	logger.Info("server exited cleanly")
}

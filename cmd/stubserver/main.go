package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/config"
	"github.com/spec-kit/volunteer-client/internal/observability"
	"github.com/spec-kit/volunteer-client/internal/stubserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	app, _, err := stubserver.New(cfg.Stub, logger)
	if err != nil {
		logger.Fatal("failed to build stub server", zap.Error(err))
	}

	go func() {
		logger.Info("stub server listening", zap.String("addr", cfg.Stub.Addr()))
		if err := app.Listen(cfg.Stub.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

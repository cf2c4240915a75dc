package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"paper-registry/internal/cli"
	"paper-registry/internal/config"
	apperrors "paper-registry/pkg/errors"
	"paper-registry/pkg/logger"
)

func main() {
	// A missing .env is normal; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.NewConfig()
	cli.SetLoader(&cli.ContainerLoader{
		Config: cfg,
		Logger: logger.NewLoggerWithWriter(os.Stderr, cfg.GetLogLevel()),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperrors.UserMessage(err))
		stop()
		os.Exit(1)
	}
}

// Package main provides the entry point for the teevault CLI, a thin
// demonstration surface over the vault core. Every subcommand loads
// configuration, builds a DI container, performs exactly one vault
// operation against the on-disk envelope, and exits; there is no
// long-running unlocked session across invocations.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nullsector/teevault/internal/app"
)

// closeContainer shuts down the container and logs any error.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

func main() {
	cmd := &cli.Command{
		Name:     "teevault",
		Usage:    "Encrypted local secret vault",
		Version:  "1.0.0",
		Commands: getCommands(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/adapter/cli/habit"
	"github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/google/uuid"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration, from a YAML file when --config is given
	var (
		cfg *config.Config
		err error
	)
	if path := cli.ConfigFile(os.Args[1:]); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, cli.Version, cli.Verbose(os.Args[1:]))
	cli.SetLogger(logger)

	// Without a database the commands print a hint instead of failing
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()

		userID, err := uuid.Parse(cfg.UserID)
		if err != nil {
			logger.Error("invalid CADENCE_USER_ID", "error", err)
			container.Close()
			os.Exit(1)
		}

		cliApp = cli.NewApp(container)
		cliApp.SetCurrentUserID(userID)
	}

	cli.SetApp(cliApp)
	cli.AddCommand(habit.Cmd)

	cli.Execute(ctx)
}

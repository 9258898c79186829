package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dealdesk/diligence-assistant/internal/adapters/cli"
	"github.com/dealdesk/diligence-assistant/internal/bootstrap"
	"github.com/dealdesk/diligence-assistant/internal/config"
	"github.com/dealdesk/diligence-assistant/internal/observability/logging"
)

const serviceName = "ragctl"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ragctl:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.NewWithFormat(os.Stderr, serviceName, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	root := cli.NewRootCommand(cli.Services{
		Uploads:  app.Uploads,
		Projects: app.Projects,
		Searcher: app.Retrieve,
		Chat:     app.Chat,
		TopK:     cfg.TopK,
	})
	root.SetOut(os.Stdout)
	return root.ExecuteContext(ctx)
}

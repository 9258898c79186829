package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/dealdesk/diligence-assistant/internal/adapters/mcp"
	"github.com/dealdesk/diligence-assistant/internal/bootstrap"
	"github.com/dealdesk/diligence-assistant/internal/config"
	"github.com/dealdesk/diligence-assistant/internal/observability/logging"
)

const serviceName = "diligence-mcp"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol.
	logger := logging.NewWithFormat(os.Stderr, serviceName, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server, err := mcpadapter.NewServer(mcpadapter.Services{
		Searcher: app.Retrieve,
		Chat:     app.Chat,
	}, cfg.TopK)
	if err != nil {
		logger.Error("mcp_init_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("mcp_serving_stdio")
	if err := server.Run(ctx); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}

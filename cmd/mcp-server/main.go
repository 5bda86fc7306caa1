package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/cmd/mcp-server/handlers"
	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/internal/config"
	"github.com/providentiaww/autotask-mcp/internal/logging"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

const serviceVersion = "1.0.0"

func main() {
	config.LoadEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client := autotask.NewClient(cfg.Autotask, logger.Named("autotask"))

	server := mcp.NewServer("autotask-mcp", serviceVersion, logger.Named("mcp"))
	if err := registerTools(server, client, logger); err != nil {
		logger.Fatal("tool registration failed", zap.Error(err))
	}
	handlers.RegisterResources(server, client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting autotask-mcp",
		zap.String("version", serviceVersion),
		zap.String("transport", string(cfg.Transport)))

	errCh := make(chan error, 2)
	var httpSrv *mcp.HTTPServer

	if cfg.Transport.IncludesHTTP() {
		httpSrv = mcp.NewHTTPServer(server, mcp.HTTPOptions{
			Host: cfg.HTTP.Host,
			Port: cfg.HTTP.Port,
			Auth: mcp.AuthOptions{
				Enabled:            cfg.HTTP.Auth.Enabled,
				Username:           cfg.HTTP.Auth.Username,
				Password:           cfg.HTTP.Auth.Password,
				ServiceTokenSecret: cfg.HTTP.Auth.ServiceTokenSecret,
			},
		}, logger.Named("http"))
		go func() { errCh <- httpSrv.Start() }()
	}

	if cfg.Transport.IncludesStdio() {
		stdioSrv := mcp.NewStdioServer(server, logger.Named("stdio"))
		go func() { errCh <- stdioSrv.Start(ctx) }()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logger.Error("transport failed", zap.Error(err))
		}
	}

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", zap.Error(err))
		}
	}
	logger.Info("autotask-mcp stopped")
}

func registerTools(server *mcp.Server, client *autotask.Client, logger *zap.Logger) error {
	specs := make([]mcp.ToolSpec, 0, 16)
	specs = append(specs, handlers.NewSystemHandler(client, logger.Named("system")).Tools()...)
	specs = append(specs, handlers.NewCompanyHandler(client, logger.Named("companies")).Tools()...)
	specs = append(specs, handlers.NewContactHandler(client, logger.Named("contacts")).Tools()...)
	specs = append(specs, handlers.NewTicketHandler(client, logger.Named("tickets")).Tools()...)
	specs = append(specs, handlers.NewTimeEntryHandler(client, logger.Named("timeentries")).Tools()...)
	specs = append(specs, handlers.NewProjectHandler(client, logger.Named("projects")).Tools()...)
	specs = append(specs, handlers.NewResourceHandler(client, logger.Named("resources")).Tools()...)

	for _, spec := range specs {
		if err := server.RegisterTool(spec); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avunu/commchat/internal/cli"
	"github.com/avunu/commchat/internal/config"
	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/engine"
	"github.com/avunu/commchat/internal/gateway"
	"github.com/avunu/commchat/internal/logger"
	"github.com/avunu/commchat/internal/realtime"
	mcpTransport "github.com/avunu/commchat/internal/transport/mcp"
)

// RunMode defines how the application runs
type RunMode string

const (
	RunModeInteractive RunMode = "interactive"
	RunModeHeadless    RunMode = "headless"
	RunModeMCP         RunMode = "mcp"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	gw := gateway.NewClient(cfg.BaseURL, cfg.APIKey, cfg.APISecret)
	bus := domain.NewEventBus()
	session := engine.NewSession(gw, bus, engine.Options{
		RoomsLimit:    cfg.RoomsLimit,
		MessagesLimit: cfg.MessagesLimit,
	})
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := session.Initialize(initCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}

	// One realtime subscription per session, torn down with it.
	sub := realtime.NewSubscriber(realtime.Config{
		URL:           cfg.RealtimeURL,
		Token:         cfg.APIKey,
		AutoReconnect: true,
	})
	if err := sub.Connect(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("realtime unavailable, continuing without push updates")
	} else {
		defer sub.Close()
		go session.Run(ctx, sub.Events())
	}

	switch RunMode(cfg.Mode) {
	case RunModeMCP:
		runMCPMode(ctx, cfg, session)
	case RunModeHeadless:
		runHeadlessMode(ctx, session)
	default:
		runInteractiveMode(ctx, session, bus)
	}
}

func runInteractiveMode(ctx context.Context, session *engine.Session, bus domain.EventBus) {
	handler := cli.NewCommandHandler(session)
	interactive := cli.NewInteractiveCLI(handler, bus)
	if err := interactive.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("CLI error: %v", err)
	}
}

func runHeadlessMode(ctx context.Context, session *engine.Session) {
	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("headless mode requires a command, e.g. commchat -mode headless /rooms")
	}
	handler := cli.NewCommandHandler(session)
	headless := cli.NewHeadlessCLI(handler)
	if err := headless.Run(ctx, strings.Join(args, " ")); err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

func runMCPMode(ctx context.Context, cfg *config.Config, session *engine.Session) {
	server := mcpTransport.NewServer(session, mcpTransport.ServerConfig{
		Address: cfg.MCPAddress,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("address", cfg.MCPAddress).Msg("MCP server listening")
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("MCP server shutdown failed")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("MCP server error: %v", err)
		}
	}
}

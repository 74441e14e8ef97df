package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Srinuas/Foodapp/internal/app"
	"github.com/Srinuas/Foodapp/internal/infra"
)

func main() {
	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	infra.PrintBanner(os.Stdout, cfg)

	// 3. Resolve exchange rates without blocking requests
	go bootstrap.WarmRates(ctx)

	// 4. HTTP + WebSocket
	slog.InfoContext(ctx, "✨ QuickBite pricing service operational. Press Ctrl+C to exit.")
	if err := bootstrap.Server.Run(ctx, cfg.Server.Addr); err != nil {
		slog.Error("Server stopped with error", slog.Any("error", err))
		bootstrap.Close()
		os.Exit(1)
	}

	slog.Info("👋 Shut down gracefully")
}

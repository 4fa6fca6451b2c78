package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cryptoduel/internal/app"
	"cryptoduel/internal/domain"
	"cryptoduel/internal/engine"
	"cryptoduel/internal/infra"
	"cryptoduel/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local overrides
	_ = godotenv.Load()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize("configs/config.yaml"); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Background icon sync for display metadata
	go bootstrap.SyncIcons(ctx)

	// 4. Presentation hub: every state change is pushed to subscribers
	hub := server.NewHub()

	// 5. Game session (the single-writer round engine)
	source := infra.NewCoinGeckoClient(cfg)

	var recorder domain.RoundRecorder
	if bootstrap.Storage != nil {
		recorder = bootstrap.Storage
	}

	session := engine.NewSession(engine.Config{
		RoundLength:     cfg.Game.RoundLengthTicks,
		TickInterval:    bootstrap.TickInterval(),
		StartingBalance: cfg.Game.StartingBalance,
		Seed:            cfg.Game.Seed,
	}, bootstrap.Catalog, source, recorder, func(snap domain.RoundSnapshot) {
		hub.BroadcastJSON(snap)
	})

	go session.Run(ctx)
	slog.Info("game session running")

	// 6. HTTP shell: read-only projection + player intents
	srv := server.New(cfg.Server.Addr, session, hub, bootstrap.Storage)
	if err := srv.Start(ctx); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("shut down gracefully")
}

package app

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"cryptoduel/internal/domain"
	"cryptoduel/internal/infra"
	"cryptoduel/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Catalog    *domain.Catalog
	Storage    *storage.Storage // nil when history is disabled
	Downloader *infra.IconDownloader
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB)
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config; a missing file falls back to built-in defaults
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		cfg = infra.DefaultConfig()
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("bootstrapping", slog.String("app", cfg.App.Name))

	// 3. Build the asset catalog
	catalog, err := domain.NewCatalog(cfg.Assets)
	if err != nil {
		return err
	}
	b.Catalog = catalog
	slog.Info("asset catalog ready", slog.Int("assets", catalog.Len()))

	// 4. Round history storage (optional)
	if cfg.History.Enabled {
		store, err := storage.NewStorage(cfg.History.DBPath)
		if err != nil {
			// History is diagnostics, not gameplay; run without it
			slog.Warn("round history disabled", slog.Any("error", err))
		} else {
			b.Storage = store
			slog.Info("round history storage initialized")
		}
	}

	// 5. Icon downloader
	downloader, err := infra.NewIconDownloader()
	if err != nil {
		slog.Warn("icon downloader unavailable", slog.Any("error", err))
	} else {
		b.Downloader = downloader
	}

	return nil
}

// SyncIcons fetches missing asset icons in the background so the
// presentation layer has display metadata ready.
func (b *Bootstrap) SyncIcons(ctx context.Context) {
	if b.Downloader == nil {
		return
	}
	slog.Info("starting icon synchronization")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, asset := range b.Catalog.Assets() {
		wg.Add(1)
		go func(a domain.Asset) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			// The icon CDN is keyed by ticker symbol, not by id
			path, err := b.Downloader.DownloadIcon(a.Symbol)
			if err != nil {
				slog.Warn("failed to download icon", slog.String("asset", a.ID), slog.Any("error", err))
				return
			}
			b.Catalog.SetIconPath(a.ID, path)
		}(asset)
	}

	wg.Wait()
	slog.Info("icon synchronization completed")
}

// TickInterval returns the configured countdown cadence.
func (b *Bootstrap) TickInterval() time.Duration {
	return time.Duration(b.Config.Game.TickIntervalMS) * time.Millisecond
}

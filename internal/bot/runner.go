// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/token-sniper/internal/config"
	"github.com/rovshanmuradov/token-sniper/internal/ledger"
	"github.com/rovshanmuradov/token-sniper/internal/license"
	"github.com/rovshanmuradov/token-sniper/internal/monitor"
	"github.com/rovshanmuradov/token-sniper/internal/notify"
	"github.com/rovshanmuradov/token-sniper/internal/swap"
	"github.com/rovshanmuradov/token-sniper/internal/telegram"
	"github.com/rovshanmuradov/token-sniper/internal/trader"
)

// Keygen credentials baked in for distribution; config can override via
// environment in self-hosted setups.
const (
	keygenAccountID    = "4b2d9e51-7c3a-4f6e-b8d2-1a05e9c7f284"
	keygenProductToken = "prod-2c91fe5784aa3d60b21e4f0c9d8e7a6b5c4d3e2f1a0b9c8d7e6f5a4b3c2d1e0fv3"
	keygenProductID    = "9e8f1a23-5b4c-4d6e-a7f8-0c1b2d3e4f5a"
)

const shutdownTimeout = 30 * time.Second

// Runner owns the process lifecycle: config, ledger, swap client,
// orchestrator, telegram front-end, and graceful shutdown.
type Runner struct {
	logger     *zap.Logger
	cfg        *config.Config
	led        *ledger.Ledger
	swapc      *swap.Client
	notifier   *notify.Notifier
	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	led, err := ledger.Open(filepath.Join(cfg.DataDir, "ledger.json"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	swapc := swap.NewClient(&swap.ClientConfig{
		QuoteAPIURL: cfg.QuoteAPIURL,
		RPCURL:      cfg.RPCURL,
		HTTPTimeout: cfg.HTTPTimeout(),
		Logger:      logger,
	})

	return &Runner{
		logger:     logger,
		cfg:        cfg,
		led:        led,
		swapc:      swapc,
		notifier:   notify.New(logger),
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// Run blocks until a shutdown signal arrives or a fatal component
// error occurs.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	validator := license.NewValidator(keygenAccountID, keygenProductToken, keygenProductID, r.logger)
	if err := validator.Validate(runCtx, r.cfg.License); err != nil {
		return fmt.Errorf("license validation failed: %w", err)
	}

	channels, err := telegram.LoadChannels(r.cfg.ChannelsFile)
	if err != nil {
		return err
	}
	r.logger.Info(fmt.Sprintf("📡 Monitoring %d channel(s)", len(channels.All())))

	manager := monitor.NewManager(runCtx, r.logger)
	orch := trader.New(&trader.Config{
		Ledger:             r.led,
		Swap:               r.swapc,
		Sink:               r.notifier,
		Manager:            manager,
		Logger:             r.logger,
		MonitorInterval:    r.cfg.MonitorInterval(),
		MonitorMaxDuration: r.cfg.MonitorMaxDuration(),
	})

	// Crash recovery: pick up positions that were still open when the
	// previous process stopped.
	if err := orch.ResumePositions(); err != nil {
		return err
	}

	listener, err := telegram.NewListener(&telegram.Config{
		Token:    r.cfg.TelegramBotToken,
		Channels: channels,
		Detector: orch,
		Ledger:   r.led,
		Notifier: r.notifier,
		Balances: r.swapc,
		Logger:   r.logger,
	})
	if err != nil {
		return err
	}

	r.logger.Info("🚀 Sniper bot running")

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return listener.Run(gctx)
	})

	runErr := g.Wait()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := orch.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("Shutdown incomplete", zap.Error(err))
	}

	r.logger.Info("👋 Bot shut down gracefully")
	return runErr
}

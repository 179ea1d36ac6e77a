// internal/trader/orchestrator.go
package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/ledger"
	"github.com/rovshanmuradov/token-sniper/internal/monitor"
	"github.com/rovshanmuradov/token-sniper/internal/notify"
	"github.com/rovshanmuradov/token-sniper/internal/settings"
	"github.com/rovshanmuradov/token-sniper/internal/swap"
	"github.com/rovshanmuradov/token-sniper/internal/wallet"
)

// SwapClient is the slice of the swap package the orchestrator uses.
type SwapClient interface {
	GetQuote(ctx context.Context, params swap.QuoteParams) (*swap.Quote, error)
	ExecuteSwap(ctx context.Context, quote *swap.Quote, signer *wallet.Wallet) (*swap.Fill, error)
	GetTokenPrice(ctx context.Context, mint string) (float64, error)
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Ledger             *ledger.Ledger
	Swap               SwapClient
	Sink               monitor.Sink
	Manager            *monitor.Manager
	Logger             *zap.Logger
	MonitorInterval    time.Duration
	MonitorMaxDuration time.Duration
}

// Orchestrator turns detection events into positions: dedup against the
// ledger, buy through the swap client, persist, hand off to a monitor.
// Each token is bought at most once for the lifetime of the ledger.
type Orchestrator struct {
	led     *ledger.Ledger
	swapc   SwapClient
	sink    monitor.Sink
	manager *monitor.Manager
	logger  *zap.Logger

	monitorInterval    time.Duration
	monitorMaxDuration time.Duration

	// inflight holds mints with a buy in progress, so that concurrent
	// detections of one mint cannot race past the traded-set check while
	// the first buy is still on the wire.
	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(cfg *Config) *Orchestrator {
	return &Orchestrator{
		led:                cfg.Ledger,
		swapc:              cfg.Swap,
		sink:               cfg.Sink,
		manager:            cfg.Manager,
		logger:             cfg.Logger.Named("trader"),
		monitorInterval:    cfg.MonitorInterval,
		monitorMaxDuration: cfg.MonitorMaxDuration,
		inflight:           make(map[string]struct{}),
	}
}

// OnDetection handles one (mint, channel) event end to end. Skips and
// failures are reported through the sink; the returned error mirrors
// the failure for the caller's log.
func (o *Orchestrator) OnDetection(ctx context.Context, mint, channel string) error {
	o.logger.Info(fmt.Sprintf("🔍 Detected %s in %q", shortMint(mint), channel))
	o.sink.Notify(ctx, notify.TokenDetected(mint, channel))

	if !o.reserve(mint) {
		o.logger.Info(fmt.Sprintf("⏭ Skipping %s: already traded or buy in flight", shortMint(mint)))
		o.sink.Notify(ctx, notify.TokenSkipped(mint))
		return nil
	}

	snap := o.led.Settings()
	pos, err := o.buy(ctx, mint, channel, snap)
	if err != nil {
		// Not recorded as traded: a later detection may retry.
		o.release(mint)
		o.logger.Error("❌ Buy failed", zap.String("mint", mint), zap.Error(err))
		o.sink.Notify(ctx, notify.TradeFailed(mint, err.Error()))
		return err
	}
	o.release(mint)

	o.logger.Info(fmt.Sprintf("✅ Bought %s: %.6f tokens @ %.9f SOL",
		shortMint(mint), swap.RawToTokens(pos.InitialQuantityRaw), pos.EntryPrice))
	o.sink.Notify(ctx, notify.TradeOpened(mint, pos.InvestedSOL, pos.EntryPrice, pos.TakeProfitPrice))

	if err := o.watch(pos, snap); err != nil {
		o.logger.Error("Failed to start monitor", zap.String("mint", mint), zap.Error(err))
		return err
	}
	return nil
}

// buy executes the quote+swap pair and persists the result. The
// settings snapshot is the one handed to the monitor afterwards.
func (o *Orchestrator) buy(ctx context.Context, mint, channel string, snap settings.TradeSettings) (*ledger.Position, error) {
	signer, err := o.led.ActiveWallet()
	if err != nil {
		return nil, err
	}

	if lamports, err := o.swapc.GetBalance(ctx, signer.PublicKey); err != nil {
		o.logger.Warn("Balance check unavailable, proceeding", zap.Error(err))
	} else {
		o.logger.Debug("Wallet balance", zap.Float64("sol", swap.LamportsToSol(lamports)))
	}

	quote, err := o.swapc.GetQuote(ctx, swap.QuoteParams{
		InputMint:       swap.WSOLMint,
		OutputMint:      mint,
		AmountRaw:       swap.SolToLamports(snap.InitialInvestmentSOL),
		SlippagePercent: snap.MaxSlippagePercent,
	})
	if err != nil {
		return nil, err
	}

	fill, err := o.swapc.ExecuteSwap(ctx, quote, signer)
	if err != nil {
		return nil, err
	}

	pos := &ledger.Position{
		TokenMint:            mint,
		SourceChannel:        channel,
		EntryPrice:           fill.Price,
		InvestedSOL:          snap.InitialInvestmentSOL,
		InitialQuantityRaw:   fill.OutAmountRaw,
		RemainingQuantityRaw: fill.OutAmountRaw,
		TakeProfitPrice:      snap.TakeProfitPrice(fill.Price),
		OpenedAt:             time.Now().UTC(),
	}

	// The swap already happened; persistence failures are logged but do
	// not undo the trade.
	if _, err := o.led.MarkTraded(mint); err != nil {
		o.logger.Error("Failed to persist traded mark", zap.String("mint", mint), zap.Error(err))
	}
	if err := o.led.UpsertPosition(pos); err != nil {
		o.logger.Error("Failed to persist position", zap.String("mint", mint), zap.Error(err))
	}

	return pos, nil
}

// ResumePositions re-spawns a monitor for every persisted open
// position, using the current settings snapshot. Called once at
// startup; the first poll performs the catch-up check against the
// persisted target.
func (o *Orchestrator) ResumePositions() error {
	positions := o.led.OpenPositions()
	if len(positions) == 0 {
		return nil
	}

	snap := o.led.Settings()
	o.logger.Info(fmt.Sprintf("🔄 Resuming %d open position(s)", len(positions)))

	for _, pos := range positions {
		if err := o.watch(pos, snap); err != nil {
			return fmt.Errorf("resume %s: %w", pos.TokenMint, err)
		}
	}
	return nil
}

func (o *Orchestrator) watch(pos *ledger.Position, snap settings.TradeSettings) error {
	return o.manager.Watch(&monitor.Config{
		Position:    pos,
		Settings:    snap,
		Market:      &market{swapc: o.swapc, led: o.led},
		Store:       o.led,
		Sink:        o.sink,
		Logger:      o.logger,
		Interval:    o.monitorInterval,
		MaxDuration: o.monitorMaxDuration,
	})
}

// Shutdown stops all monitors and waits for them.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	return o.manager.Shutdown(ctx)
}

// reserve atomically claims the mint for one buy attempt. It fails when
// the mint was already traded or another buy for it is in flight.
func (o *Orchestrator) reserve(mint string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[mint]; busy {
		return false
	}
	if o.led.IsTraded(mint) {
		return false
	}
	o.inflight[mint] = struct{}{}
	return true
}

func (o *Orchestrator) release(mint string) {
	o.mu.Lock()
	delete(o.inflight, mint)
	o.mu.Unlock()
}

func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + "..." + mint[len(mint)-4:]
}

// internal/monitor/monitor.go
package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/ledger"
	"github.com/rovshanmuradov/token-sniper/internal/notify"
	"github.com/rovshanmuradov/token-sniper/internal/settings"
	"github.com/rovshanmuradov/token-sniper/internal/swap"
)

// trailingBumpPercent is added on top of the executed sell price to form
// the next take-profit target after a partial sell.
const trailingBumpPercent = 10

const (
	DefaultInterval    = 60 * time.Second
	DefaultMaxDuration = 24 * time.Hour
)

// Market is the slice of the swap client a monitor needs: a price probe
// and a sell.
type Market interface {
	TokenPrice(ctx context.Context, mint string) (float64, error)
	Sell(ctx context.Context, mint string, quantityRaw uint64, slippagePercent float64) (*swap.Fill, error)
}

// Store persists position snapshots between polls.
type Store interface {
	UpsertPosition(pos *ledger.Position) error
	RemovePosition(mint string) error
}

// Sink receives best-effort trade notifications.
type Sink interface {
	Notify(ctx context.Context, text string)
}

// Config describes one monitoring session. Settings are an immutable
// snapshot taken when the position was opened; later operator changes
// never affect a running monitor.
type Config struct {
	Position    *ledger.Position
	Settings    settings.TradeSettings
	Market      Market
	Store       Store
	Sink        Sink
	Logger      *zap.Logger
	Interval    time.Duration
	MaxDuration time.Duration
}

// Monitor watches a single open position and executes tiered
// take-profit sells. It is armed with a target price; when a poll meets
// the target it sells the configured portion, raises the target above
// the executed price, and re-arms until the position is empty or the
// session times out.
type Monitor struct {
	pos      *ledger.Position
	settings settings.TradeSettings
	market   Market
	store    Store
	sink     Sink
	logger   *zap.Logger

	interval    time.Duration
	maxDuration time.Duration

	target float64
	closed bool
}

func New(cfg *Config) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxDuration := cfg.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}

	return &Monitor{
		pos:         cfg.Position.Clone(),
		settings:    cfg.Settings,
		market:      cfg.Market,
		store:       cfg.Store,
		sink:        cfg.Sink,
		logger:      cfg.Logger.Named("monitor").With(zap.String("mint", cfg.Position.TokenMint)),
		interval:    interval,
		maxDuration: maxDuration,
		target:      cfg.Position.TakeProfitPrice,
	}
}

// Run polls until the position is fully liquidated, the session hits
// its maximum lifetime, or ctx is cancelled. It blocks; the Manager
// wraps it in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info(fmt.Sprintf("📊 Monitoring started: %.6f tokens, target %.9f SOL",
		swap.RawToTokens(m.pos.RemainingQuantityRaw), m.target),
		zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(m.maxDuration)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Monitoring cancelled")
			return
		case <-deadline.C:
			m.logger.Warn("⏰ Monitoring timed out, position stays open",
				zap.Duration("after", m.maxDuration))
			m.sink.Notify(ctx, notify.MonitoringTimedOut(m.pos.TokenMint))
			return
		case <-ticker.C:
			m.poll(ctx)
			if m.closed {
				return
			}
		}
	}
}

// poll performs one price check and, if the target is met, one sell.
func (m *Monitor) poll(ctx context.Context) {
	price, err := m.market.TokenPrice(ctx, m.pos.TokenMint)
	if err != nil {
		m.logger.Warn("Price probe failed", zap.Error(err))
		return
	}

	m.logger.Debug("Price update",
		zap.Float64("price", price),
		zap.Float64("target", m.target))

	if price < m.target {
		return
	}

	qty := sellQuantity(m.pos.RemainingQuantityRaw, m.settings.SellPercentPerTrigger)
	if qty == 0 {
		return
	}

	fill, err := m.market.Sell(ctx, m.pos.TokenMint, qty, m.settings.MaxSlippagePercent)
	if err != nil {
		// Target and quantity stay as they are; the next poll that still
		// meets the target retries the sell.
		m.logger.Error("❌ Take-profit sell failed", zap.Error(err))
		m.sink.Notify(ctx, notify.TakeProfitFailed(m.pos.TokenMint, err.Error()))
		return
	}

	soldRaw := fill.InAmountRaw
	if soldRaw > m.pos.RemainingQuantityRaw {
		soldRaw = m.pos.RemainingQuantityRaw
	}
	m.pos.RemainingQuantityRaw -= soldRaw

	receivedSOL := swap.LamportsToSol(fill.OutAmountRaw)
	costSOL := m.pos.EntryPrice * swap.RawToTokens(soldRaw)
	profitSOL := receivedSOL - costSOL
	profitPercent := 0.0
	if m.pos.EntryPrice > 0 {
		profitPercent = (fill.Price/m.pos.EntryPrice - 1) * 100
	}

	m.logger.Info(fmt.Sprintf("💰 Take-profit executed: sold %.6f tokens @ %.9f SOL (%+.6f SOL)",
		swap.RawToTokens(soldRaw), fill.Price, profitSOL),
		zap.String("tx_id", fill.TxID))
	m.sink.Notify(ctx, notify.TakeProfitExecuted(m.pos.TokenMint, fill.Price, profitSOL, profitPercent))

	if m.pos.RemainingQuantityRaw == 0 {
		m.closed = true
		if err := m.store.RemovePosition(m.pos.TokenMint); err != nil {
			m.logger.Error("Failed to remove closed position", zap.Error(err))
		}
		m.sink.Notify(ctx, notify.PositionClosed(m.pos.TokenMint))
		m.logger.Info("🏁 Position fully closed")
		return
	}

	// Trail the target above the executed price. It never decreases.
	next := fill.Price * (1 + trailingBumpPercent/100.0)
	if next > m.target {
		m.target = next
	}
	m.pos.TakeProfitPrice = m.target

	if err := m.store.UpsertPosition(m.pos); err != nil {
		m.logger.Error("Failed to persist position snapshot", zap.Error(err))
	}

	m.logger.Info(fmt.Sprintf("🎯 Re-armed: %.6f tokens left, next target %.9f SOL",
		swap.RawToTokens(m.pos.RemainingQuantityRaw), m.target))
}

// sellQuantity returns the raw amount for one take-profit tier. A
// percentage at or above 100 liquidates the whole remainder, as does a
// remainder too small to split.
func sellQuantity(remainingRaw uint64, percent float64) uint64 {
	if remainingRaw == 0 {
		return 0
	}
	if percent >= 100 {
		return remainingRaw
	}
	qty := uint64(math.Round(float64(remainingRaw) * percent / 100))
	if qty == 0 || qty > remainingRaw {
		return remainingRaw
	}
	return qty
}

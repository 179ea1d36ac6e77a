package trader

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/token-sniper/internal/ledger"
	"github.com/rovshanmuradov/token-sniper/internal/monitor"
	"github.com/rovshanmuradov/token-sniper/internal/swap"
	"github.com/rovshanmuradov/token-sniper/internal/wallet"
)

type fakeSwap struct {
	mu        sync.Mutex
	price     float64 // live token price, SOL per token
	buyPrice  float64
	buyOutRaw uint64
	quoteErr  error
	swapErr   error
	swapDelay time.Duration

	buys    int
	soldRaw []uint64
}

func (f *fakeSwap) GetQuote(_ context.Context, params swap.QuoteParams) (*swap.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}

	out := f.buyOutRaw
	if params.InputMint != swap.WSOLMint {
		out = swap.SolToLamports(f.price * swap.RawToTokens(params.AmountRaw))
	}
	return &swap.Quote{
		InputMint:    params.InputMint,
		OutputMint:   params.OutputMint,
		InAmountRaw:  params.AmountRaw,
		OutAmountRaw: out,
	}, nil
}

func (f *fakeSwap) ExecuteSwap(_ context.Context, quote *swap.Quote, _ *wallet.Wallet) (*swap.Fill, error) {
	f.mu.Lock()
	delay := f.swapDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.swapErr != nil {
		return nil, f.swapErr
	}

	if quote.InputMint == swap.WSOLMint {
		f.buys++
		return &swap.Fill{
			InAmountRaw:  quote.InAmountRaw,
			OutAmountRaw: f.buyOutRaw,
			Price:        f.buyPrice,
			TxID:         "tx-buy",
		}, nil
	}

	f.soldRaw = append(f.soldRaw, quote.InAmountRaw)
	return &swap.Fill{
		InAmountRaw:  quote.InAmountRaw,
		OutAmountRaw: quote.OutAmountRaw,
		Price:        f.price,
		TxID:         "tx-sell",
	}, nil
}

func (f *fakeSwap) GetTokenPrice(context.Context, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, nil
}

func (f *fakeSwap) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return swap.LamportsPerSOL, nil
}

func (f *fakeSwap) setPrice(p float64) {
	f.mu.Lock()
	f.price = p
	f.mu.Unlock()
}

func (f *fakeSwap) sellCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.soldRaw)
}

type sinkRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (s *sinkRecorder) Notify(_ context.Context, text string) {
	s.mu.Lock()
	s.msgs = append(s.msgs, text)
	s.mu.Unlock()
}

func (s *sinkRecorder) containing(substr string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.msgs {
		if strings.Contains(m, substr) {
			out = append(out, m)
		}
	}
	return out
}

func newTestOrchestrator(t *testing.T, f *fakeSwap, withWallet bool) (*Orchestrator, *ledger.Ledger, *sinkRecorder) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	led, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.json"), logger)
	require.NoError(t, err)

	if withWallet {
		w, err := wallet.Generate("Wallet 1")
		require.NoError(t, err)
		require.NoError(t, led.AddWallet(w, false))
	}

	sink := &sinkRecorder{}
	o := New(&Config{
		Ledger:             led,
		Swap:               f,
		Sink:               sink,
		Manager:            monitor.NewManager(context.Background(), logger),
		Logger:             logger,
		MonitorInterval:    10 * time.Millisecond,
		MonitorMaxDuration: 5 * time.Second,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	})
	return o, led, sink
}

func TestEndToEndTakeProfit(t *testing.T) {
	f := &fakeSwap{price: 0.0005, buyPrice: 0.001, buyOutRaw: 100_000_000}
	o, led, sink := newTestOrchestrator(t, f, true)

	require.NoError(t, o.OnDetection(context.Background(), "TOKENA", "Alpha"))

	assert.True(t, led.IsTraded("TOKENA"))
	require.Len(t, led.OpenPositions(), 1)
	pos := led.OpenPositions()[0]
	assert.InDelta(t, 0.001, pos.EntryPrice, 1e-12)
	assert.InDelta(t, 0.0013, pos.TakeProfitPrice, 1e-9)
	assert.Equal(t, uint64(100_000_000), pos.RemainingQuantityRaw)

	require.Len(t, sink.containing("New token detected"), 1)
	require.Len(t, sink.containing("Bought"), 1)

	// Price climbs 30%: exactly one sell of half the quantity.
	f.setPrice(0.0013)
	require.Eventually(t, func() bool { return f.sellCount() == 1 }, 3*time.Second, 5*time.Millisecond)

	f.mu.Lock()
	sold := f.soldRaw[0]
	f.mu.Unlock()
	assert.Equal(t, uint64(50_000_000), sold)

	require.Eventually(t, func() bool {
		return len(sink.containing("Take-profit executed")) == 1
	}, 3*time.Second, 5*time.Millisecond)

	// Profit ~= 0.1 * 0.5 * (0.0013/0.001 - 1) = 0.015 SOL.
	msg := sink.containing("Take-profit executed")[0]
	assert.Contains(t, msg, "0.015000 SOL")

	// The trailed target (0.00143) is above the live price: no second
	// sell follows.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.sellCount())
}

func TestDetectionIsIdempotent(t *testing.T) {
	f := &fakeSwap{price: 0.0001, buyPrice: 0.001, buyOutRaw: 100_000_000}
	o, _, sink := newTestOrchestrator(t, f, true)

	require.NoError(t, o.OnDetection(context.Background(), "TOKENA", "Alpha"))
	require.NoError(t, o.OnDetection(context.Background(), "TOKENA", "Beta"))
	require.NoError(t, o.OnDetection(context.Background(), "TOKENA", "Alpha"))

	assert.Equal(t, 1, f.buys)
	// Every detection is audited, repeats are skipped.
	assert.Len(t, sink.containing("New token detected"), 3)
	assert.Len(t, sink.containing("already traded"), 2)
}

func TestConcurrentDetectionsBuyOnce(t *testing.T) {
	f := &fakeSwap{price: 0.0001, buyPrice: 0.001, buyOutRaw: 100_000_000, swapDelay: 30 * time.Millisecond}
	o, led, _ := newTestOrchestrator(t, f, true)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = o.OnDetection(context.Background(), "HOTMINT", "Alpha")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.buys)
	assert.True(t, led.IsTraded("HOTMINT"))
	assert.Len(t, led.OpenPositions(), 1)
}

func TestFailedBuyAllowsRetry(t *testing.T) {
	f := &fakeSwap{price: 0.0001, buyPrice: 0.001, buyOutRaw: 100_000_000}
	f.swapErr = &swap.SwapFailedError{Reason: "slippage exceeded"}
	o, led, sink := newTestOrchestrator(t, f, true)

	err := o.OnDetection(context.Background(), "TOKENA", "Alpha")
	require.Error(t, err)

	var swapErr *swap.SwapFailedError
	assert.ErrorAs(t, err, &swapErr)
	assert.False(t, led.IsTraded("TOKENA"), "failed buy must not mark the token traded")
	assert.Len(t, sink.containing("Buy failed"), 1)

	// The next detection retries and succeeds.
	f.mu.Lock()
	f.swapErr = nil
	f.mu.Unlock()
	require.NoError(t, o.OnDetection(context.Background(), "TOKENA", "Alpha"))
	assert.True(t, led.IsTraded("TOKENA"))
	assert.Equal(t, 1, f.buys)
}

func TestNoWalletFailsBuy(t *testing.T) {
	f := &fakeSwap{price: 0.0001, buyPrice: 0.001, buyOutRaw: 100_000_000}
	o, _, sink := newTestOrchestrator(t, f, false)

	err := o.OnDetection(context.Background(), "TOKENA", "Alpha")
	require.ErrorIs(t, err, ledger.ErrWalletNotConfigured)
	assert.Len(t, sink.containing("Buy failed"), 1)
}

func TestQuoteFailureNotifies(t *testing.T) {
	f := &fakeSwap{quoteErr: swap.ErrQuoteUnavailable}
	o, led, sink := newTestOrchestrator(t, f, true)

	err := o.OnDetection(context.Background(), "TOKENA", "Alpha")
	require.ErrorIs(t, err, swap.ErrQuoteUnavailable)
	assert.False(t, led.IsTraded("TOKENA"))
	assert.Len(t, sink.containing("Buy failed"), 1)
}

func TestResumePositions(t *testing.T) {
	f := &fakeSwap{price: 0.0001}
	o, led, _ := newTestOrchestrator(t, f, true)

	require.NoError(t, led.UpsertPosition(&ledger.Position{
		TokenMint:            "PERSISTED",
		EntryPrice:           0.001,
		InvestedSOL:          0.1,
		InitialQuantityRaw:   100_000_000,
		RemainingQuantityRaw: 100_000_000,
		TakeProfitPrice:      0.0013,
		OpenedAt:             time.Now().UTC(),
	}))

	require.NoError(t, o.ResumePositions())
	assert.True(t, o.manager.Watching("PERSISTED"))
}

// internal/trader/market.go
package trader

import (
	"context"

	"github.com/rovshanmuradov/token-sniper/internal/ledger"
	"github.com/rovshanmuradov/token-sniper/internal/swap"
)

// market adapts the swap client to the monitor's view of the world:
// price probes and sells signed with the active wallet.
type market struct {
	swapc SwapClient
	led   *ledger.Ledger
}

func (m *market) TokenPrice(ctx context.Context, mint string) (float64, error) {
	return m.swapc.GetTokenPrice(ctx, mint)
}

func (m *market) Sell(ctx context.Context, mint string, quantityRaw uint64, slippagePercent float64) (*swap.Fill, error) {
	signer, err := m.led.ActiveWallet()
	if err != nil {
		return nil, err
	}

	quote, err := m.swapc.GetQuote(ctx, swap.QuoteParams{
		InputMint:       mint,
		OutputMint:      swap.WSOLMint,
		AmountRaw:       quantityRaw,
		SlippagePercent: slippagePercent,
	})
	if err != nil {
		return nil, err
	}

	return m.swapc.ExecuteSwap(ctx, quote, signer)
}

// internal/settings/settings.go
package settings

import "fmt"

// TradeSettings holds the process-wide trading parameters. The values are
// hot-reloadable through the command front-end; monitors receive an
// immutable snapshot captured at buy time.
type TradeSettings struct {
	InitialInvestmentSOL  float64 `json:"initial_investment_sol"`
	TakeProfitPercent     float64 `json:"take_profit_percent"`
	SellPercentPerTrigger float64 `json:"sell_percent_per_trigger"`
	MaxSlippagePercent    float64 `json:"max_slippage_percent"`
}

// InvalidSettingsError reports a rejected settings field.
type InvalidSettingsError struct {
	Field  string
	Reason string
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid setting %s: %s", e.Field, e.Reason)
}

// Default returns the stock settings used before the user configures
// anything: 0.1 SOL per entry, sell 50% at +30%, 1% max slippage.
func Default() TradeSettings {
	return TradeSettings{
		InitialInvestmentSOL:  0.1,
		TakeProfitPercent:     30,
		SellPercentPerTrigger: 50,
		MaxSlippagePercent:    1,
	}
}

// Validate checks numeric ranges. Callers are expected to validate input
// syntax; ranges are re-checked here so bad values are never stored.
func (s TradeSettings) Validate() error {
	if s.InitialInvestmentSOL <= 0 {
		return &InvalidSettingsError{Field: "initial_investment_sol", Reason: "must be greater than zero"}
	}
	if s.TakeProfitPercent <= 0 {
		return &InvalidSettingsError{Field: "take_profit_percent", Reason: "must be greater than zero"}
	}
	if s.SellPercentPerTrigger <= 0 || s.SellPercentPerTrigger > 100 {
		return &InvalidSettingsError{Field: "sell_percent_per_trigger", Reason: "must be between 0 (exclusive) and 100"}
	}
	if s.MaxSlippagePercent < 0 {
		return &InvalidSettingsError{Field: "max_slippage_percent", Reason: "must not be negative"}
	}
	return nil
}

// TakeProfitPrice computes the initial target for a position opened at
// the given entry price.
func (s TradeSettings) TakeProfitPrice(entryPrice float64) float64 {
	return entryPrice * (1 + s.TakeProfitPercent/100)
}

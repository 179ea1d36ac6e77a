package notify

import "fmt"

// Message builders for the trade lifecycle. Prices are SOL per token
// and printed with enough precision for freshly listed tokens.

func TokenDetected(mint, channel string) string {
	return fmt.Sprintf("🔍 New token detected in *%s*\n`%s`", channel, mint)
}

func TokenSkipped(mint string) string {
	return fmt.Sprintf("⏭ Skipping `%s`: already traded", mint)
}

func TradeOpened(mint string, investedSOL, entryPrice, takeProfitPrice float64) string {
	return fmt.Sprintf(
		"✅ Bought `%s`\nInvested: %.4f SOL\nEntry price: %.9f SOL\nTake-profit: %.9f SOL",
		mint, investedSOL, entryPrice, takeProfitPrice)
}

func TradeFailed(mint, reason string) string {
	return fmt.Sprintf("❌ Buy failed for `%s`\n%s", mint, reason)
}

func TakeProfitExecuted(mint string, price, profitSOL, profitPercent float64) string {
	return fmt.Sprintf(
		"💰 Take-profit executed for `%s`\nPrice: %.9f SOL\nProfit: %.6f SOL (+%.1f%%)",
		mint, price, profitSOL, profitPercent)
}

func TakeProfitFailed(mint, reason string) string {
	return fmt.Sprintf("⚠️ Take-profit sell failed for `%s`\n%s\nWill retry on the next trigger.", mint, reason)
}

func PositionClosed(mint string) string {
	return fmt.Sprintf("🏁 Position fully closed for `%s`", mint)
}

func MonitoringTimedOut(mint string) string {
	return fmt.Sprintf("⏰ Monitoring timed out for `%s`\nThe position remains open in the ledger.", mint)
}

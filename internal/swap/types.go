package swap

import (
	"encoding/json"
	"math"
)

// WSOLMint is the wrapped-SOL mint used as the quote currency side of
// every swap.
const WSOLMint = "So11111111111111111111111111111111111111112"

const (
	LamportsPerSOL       = 1_000_000_000
	DefaultTokenDecimals = 6
)

// QuoteParams describes one side-to-side quote request. Amounts are in
// raw smallest units.
type QuoteParams struct {
	InputMint       string
	OutputMint      string
	AmountRaw       uint64
	SlippagePercent float64
}

// Quote is a priced route returned by the quoting service. The raw
// payload is carried along so the swap call can echo it back verbatim.
type Quote struct {
	InputMint    string
	OutputMint   string
	InAmountRaw  uint64
	OutAmountRaw uint64
	SlippageBps  int

	payload json.RawMessage
}

// Fill is the result of an executed swap.
type Fill struct {
	InAmountRaw  uint64
	OutAmountRaw uint64
	Price        float64 // SOL per whole token
	TxID         string
}

// SolToLamports converts a SOL amount to lamports.
func SolToLamports(sol float64) uint64 {
	return uint64(math.Round(sol * LamportsPerSOL))
}

// LamportsToSol converts lamports to SOL.
func LamportsToSol(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}

// TokensToRaw converts a whole-token amount to raw smallest units,
// assuming the default 6 decimals.
func TokensToRaw(tokens float64) uint64 {
	return uint64(math.Round(tokens * math.Pow10(DefaultTokenDecimals)))
}

// RawToTokens converts raw smallest units to whole tokens.
func RawToTokens(raw uint64) float64 {
	return float64(raw) / math.Pow10(DefaultTokenDecimals)
}

package ledger

import "time"

// Position is the persisted snapshot of an open, partially-liquidatable
// holding. While the position is open it is owned by its monitor; the
// ledger only keeps the last written snapshot so a restart can resume
// monitoring from known state.
type Position struct {
	TokenMint            string    `json:"token_mint"`
	SourceChannel        string    `json:"source_channel"`
	EntryPrice           float64   `json:"entry_price"`      // SOL per whole token
	InvestedSOL          float64   `json:"invested_sol"`     // SOL spent at entry
	InitialQuantityRaw   uint64    `json:"initial_quantity"` // raw smallest units
	RemainingQuantityRaw uint64    `json:"remaining_quantity"`
	TakeProfitPrice      float64   `json:"take_profit_price"`
	OpenedAt             time.Time `json:"opened_at"`
}

// Clone returns an independent copy of the position.
func (p *Position) Clone() *Position {
	cp := *p
	return &cp
}

// WalletInfo is a read-only view of a stored wallet for listings.
type WalletInfo struct {
	Name      string
	PublicKey string
	Active    bool
}

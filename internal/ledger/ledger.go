// internal/ledger/ledger.go
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/settings"
	"github.com/rovshanmuradov/token-sniper/internal/wallet"
)

// ErrWalletNotConfigured is returned when an operation needs a signing
// wallet but none is active.
var ErrWalletNotConfigured = errors.New("no active wallet configured")

// ErrPositionNotFound is returned when a position snapshot does not exist.
var ErrPositionNotFound = errors.New("position not found")

// state is the on-disk document. It must round-trip exactly.
type state struct {
	Settings     settings.TradeSettings `json:"settings"`
	TradedTokens []string               `json:"traded_tokens"`
	Wallets      []wallet.Record        `json:"wallets"`
	ActiveWallet int                    `json:"active_wallet_index"`
	Positions    map[string]*Position   `json:"positions"`
}

// Ledger is the durable record of trading settings, the traded-token
// set, wallets and open-position snapshots. A single mutex serializes
// all mutation; every mutation is persisted before returning. The
// ledger is deliberately not a high-throughput structure.
type Ledger struct {
	mu      sync.Mutex
	path    string
	logger  *zap.Logger
	state   state
	traded  map[string]struct{}
	wallets []*wallet.Wallet
}

// Open loads the ledger from path, creating a fresh one with default
// settings when the file does not exist yet.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	l := &Ledger{
		path:   filepath.Clean(path),
		logger: logger.Named("ledger"),
		state: state{
			Settings:     settings.Default(),
			ActiveWallet: -1,
			Positions:    make(map[string]*Position),
		},
		traded: make(map[string]struct{}),
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Info("📒 No ledger file found, starting fresh", zap.String("path", l.path))
			return l, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	if err := json.Unmarshal(data, &l.state); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	if l.state.Positions == nil {
		l.state.Positions = make(map[string]*Position)
	}

	for _, mint := range l.state.TradedTokens {
		l.traded[mint] = struct{}{}
	}

	for _, rec := range l.state.Wallets {
		w, err := wallet.FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to restore wallet %q: %w", rec.Name, err)
		}
		l.wallets = append(l.wallets, w)
	}
	if l.state.ActiveWallet < -1 || l.state.ActiveWallet >= len(l.wallets) {
		return nil, fmt.Errorf("ledger is corrupt: active wallet index %d out of range", l.state.ActiveWallet)
	}

	l.logger.Info("📒 Ledger loaded",
		zap.Int("traded_tokens", len(l.traded)),
		zap.Int("open_positions", len(l.state.Positions)),
		zap.Int("wallets", len(l.wallets)))
	return l, nil
}

// persist writes the full document atomically. Callers hold l.mu.
func (l *Ledger) persist() error {
	data, err := json.MarshalIndent(&l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

// Settings returns a copy of the current trade settings.
func (l *Ledger) Settings() settings.TradeSettings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Settings
}

// UpdateSettings validates and stores new trade settings. Invalid
// settings are rejected and never persisted.
func (l *Ledger) UpdateSettings(s settings.TradeSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	previous := l.state.Settings
	l.state.Settings = s
	if err := l.persist(); err != nil {
		l.state.Settings = previous
		return err
	}
	return nil
}

// IsTraded reports whether the token was ever bought.
func (l *Ledger) IsTraded(mint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.traded[mint]
	return ok
}

// MarkTraded inserts the token into the traded set. It returns false
// without persisting when the token is already present, so the
// check-and-insert is a single atomic unit.
func (l *Ledger) MarkTraded(mint string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.traded[mint]; ok {
		return false, nil
	}

	l.traded[mint] = struct{}{}
	l.state.TradedTokens = append(l.state.TradedTokens, mint)
	if err := l.persist(); err != nil {
		delete(l.traded, mint)
		l.state.TradedTokens = l.state.TradedTokens[:len(l.state.TradedTokens)-1]
		return false, err
	}
	return true, nil
}

// TradedCount returns the number of tokens ever traded.
func (l *Ledger) TradedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.traded)
}

// UpsertPosition stores a snapshot of the position.
func (l *Ledger) UpsertPosition(p *Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Positions[p.TokenMint] = p.Clone()
	return l.persist()
}

// RemovePosition deletes a position snapshot, typically after full
// liquidation.
func (l *Ledger) RemovePosition(mint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.state.Positions[mint]; !ok {
		return ErrPositionNotFound
	}
	delete(l.state.Positions, mint)
	return l.persist()
}

// OpenPositions returns copies of all persisted position snapshots.
func (l *Ledger) OpenPositions() []*Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make([]*Position, 0, len(l.state.Positions))
	for _, p := range l.state.Positions {
		positions = append(positions, p.Clone())
	}
	return positions
}

// AddWallet stores a wallet. The first wallet automatically becomes
// active; makeActive forces activation for later ones.
func (l *Ledger) AddWallet(w *wallet.Wallet, makeActive bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.wallets = append(l.wallets, w)
	l.state.Wallets = append(l.state.Wallets, w.ToRecord())
	if makeActive || l.state.ActiveWallet == -1 {
		l.state.ActiveWallet = len(l.wallets) - 1
	}

	if err := l.persist(); err != nil {
		l.wallets = l.wallets[:len(l.wallets)-1]
		l.state.Wallets = l.state.Wallets[:len(l.state.Wallets)-1]
		if l.state.ActiveWallet >= len(l.wallets) {
			l.state.ActiveWallet = len(l.wallets) - 1
		}
		return err
	}
	return nil
}

// SelectWallet makes the wallet at index the active signer.
func (l *Ledger) SelectWallet(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.wallets) {
		return fmt.Errorf("wallet index %d out of range", index)
	}

	previous := l.state.ActiveWallet
	l.state.ActiveWallet = index
	if err := l.persist(); err != nil {
		l.state.ActiveWallet = previous
		return err
	}
	return nil
}

// ActiveWallet returns the wallet all swaps are signed with.
func (l *Ledger) ActiveWallet() (*wallet.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.ActiveWallet < 0 || l.state.ActiveWallet >= len(l.wallets) {
		return nil, ErrWalletNotConfigured
	}
	return l.wallets[l.state.ActiveWallet], nil
}

// Wallets lists stored wallets without exposing private keys.
func (l *Ledger) Wallets() []WalletInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	infos := make([]WalletInfo, 0, len(l.wallets))
	for i, w := range l.wallets {
		infos = append(infos, WalletInfo{
			Name:      w.Name,
			PublicKey: w.PublicKey.String(),
			Active:    i == l.state.ActiveWallet,
		})
	}
	return infos
}

// internal/monitor/manager.go
package monitor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Manager is the registry of running monitors, keyed by token mint. It
// owns their lifecycles: one monitor per mint, all cancelled and waited
// for on shutdown.
type Manager struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	active  map[string]context.CancelFunc
	logger  *zap.Logger
	baseCtx context.Context
}

func NewManager(ctx context.Context, logger *zap.Logger) *Manager {
	return &Manager{
		active:  make(map[string]context.CancelFunc),
		logger:  logger.Named("monitor_manager"),
		baseCtx: ctx,
	}
}

// Watch starts a monitor for the configured position. A mint that is
// already being watched is rejected.
func (m *Manager) Watch(cfg *Config) error {
	mint := cfg.Position.TokenMint

	m.mu.Lock()
	if _, exists := m.active[mint]; exists {
		m.mu.Unlock()
		return fmt.Errorf("monitor already running for %s", mint)
	}
	ctx, cancel := context.WithCancel(m.baseCtx)
	m.active[mint] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	mon := New(cfg)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.active, mint)
			m.mu.Unlock()
			cancel()
		}()
		mon.Run(ctx)
	}()

	return nil
}

// Watching reports whether a monitor is currently running for the mint.
func (m *Manager) Watching(mint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[mint]
	return ok
}

// Count returns the number of running monitors.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Shutdown cancels every monitor and waits for them to exit, or returns
// early when ctx expires.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	n := len(m.active)
	for _, cancel := range m.active {
		cancel()
	}
	m.mu.Unlock()

	if n > 0 {
		m.logger.Info(fmt.Sprintf("🛑 Stopping %d monitor(s)...", n))
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("monitor shutdown interrupted: %w", ctx.Err())
	}
}

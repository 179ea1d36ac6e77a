// internal/notify/notifier.go
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Destination delivers a rendered notification to wherever the operator
// is listening, typically a Telegram chat.
type Destination interface {
	Send(ctx context.Context, text string) error
}

// Notifier fans trade events out to the currently registered
// destination. Delivery is strictly best-effort: no destination and
// failed sends are logged and swallowed so that notification problems
// never disturb trading.
type Notifier struct {
	mu     sync.RWMutex
	dest   Destination
	logger *zap.Logger
}

func New(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger.Named("notify")}
}

// SetDestination registers the delivery target, replacing any previous
// one. A nil destination disables delivery.
func (n *Notifier) SetDestination(dest Destination) {
	n.mu.Lock()
	n.dest = dest
	n.mu.Unlock()
}

// Notify sends the message to the registered destination. Errors are
// logged, never returned.
func (n *Notifier) Notify(ctx context.Context, text string) {
	n.mu.RLock()
	dest := n.dest
	n.mu.RUnlock()

	if dest == nil {
		n.logger.Debug("No notification destination registered, dropping message")
		return
	}

	if err := dest.Send(ctx, text); err != nil {
		n.logger.Warn("Failed to deliver notification", zap.Error(err))
	}
}

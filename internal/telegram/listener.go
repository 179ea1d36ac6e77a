// internal/telegram/listener.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/cenkalti/backoff/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/ledger"
	"github.com/rovshanmuradov/token-sniper/internal/notify"
)

// mintPattern matches base58-encoded Solana addresses. Base58 excludes
// 0, O, I and l.
var mintPattern = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`)

// Detector consumes (mint, channel) events. Implemented by the trade
// orchestrator.
type Detector interface {
	OnDetection(ctx context.Context, mint, channel string) error
}

// Config wires the listener.
type Config struct {
	Token    string
	Channels *ChannelList
	Detector Detector
	Ledger   *ledger.Ledger
	Notifier *notify.Notifier
	Balances balanceClient
	Logger   *zap.Logger
}

// Listener long-polls the Telegram API, feeding channel posts to the
// detector and commands to the command front-end.
type Listener struct {
	api      *tgbotapi.BotAPI
	channels *ChannelList
	detector Detector
	commands *commandHandler
	logger   *zap.Logger
	offset   int
}

func NewListener(cfg *Config) (*Listener, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	logger := cfg.Logger.Named("telegram")
	return &Listener{
		api:      api,
		channels: cfg.Channels,
		detector: cfg.Detector,
		logger:   logger,
		commands: &commandHandler{
			api:      api,
			led:      cfg.Ledger,
			channels: cfg.Channels,
			notifier: cfg.Notifier,
			balances: cfg.Balances,
			logger:   logger.Named("commands"),
		},
	}, nil
}

// Run blocks until ctx is cancelled, reconnecting the update stream
// with exponential backoff when it drops.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info(fmt.Sprintf("📨 Telegram listener started as @%s", l.api.Self.UserName))

	op := func() (struct{}, error) {
		return struct{}{}, l.poll(ctx)
	}
	_, err := backoff.Retry(ctx, op, backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (l *Listener) poll(ctx context.Context) error {
	u := tgbotapi.NewUpdate(l.offset)
	u.Timeout = 30

	updates := l.api.GetUpdatesChan(u)
	defer l.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		case update, ok := <-updates:
			if !ok {
				l.logger.Warn("Update stream closed, reconnecting")
				return fmt.Errorf("update stream closed")
			}
			l.offset = update.UpdateID + 1
			l.handleUpdate(ctx, update)
		}
	}
}

func (l *Listener) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return
	}

	if msg.IsCommand() {
		l.commands.handle(ctx, msg)
		return
	}

	name, watched := l.channels.NameOf(msg.Chat.ID)
	if !watched {
		return
	}

	text := msg.Text
	if msg.Caption != "" {
		text += " " + msg.Caption
	}

	for _, mint := range ExtractMints(text) {
		// Detections from different channels must not block each other;
		// dedup is the orchestrator's job.
		go func(mint string) {
			if err := l.detector.OnDetection(ctx, mint, name); err != nil {
				l.logger.Debug("Detection did not trade",
					zap.String("mint", mint), zap.Error(err))
			}
		}(mint)
	}
}

// ExtractMints returns the unique base58 addresses found in the text,
// in order of first appearance.
func ExtractMints(text string) []string {
	if len(text) < 32 {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, m := range mintPattern.FindAllString(text, -1) {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

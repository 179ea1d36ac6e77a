// internal/telegram/commands.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/ledger"
	"github.com/rovshanmuradov/token-sniper/internal/notify"
	"github.com/rovshanmuradov/token-sniper/internal/swap"
	"github.com/rovshanmuradov/token-sniper/internal/wallet"
)

const helpText = `Available commands:
/start - register this chat for notifications
/settings - show current trade settings
/set_investment <sol> - set the buy amount per token
/set_take_profit <percent> - set the take-profit threshold
/wallets - list wallets
/use_wallet <index> - select the active wallet
/create_wallet <name> - generate a new wallet
/wallet_info - active wallet address and balance
/positions - list open positions
/add_channel <id> <name> - monitor a channel
/remove_channel <id> - stop monitoring a channel
/list_channels - list monitored channels
/help - this message`

// balanceClient is the slice of the swap client the command front-end
// needs.
type balanceClient interface {
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
}

// commandHandler executes the operator command set. Numeric input is
// validated through the settings layer; invalid values are reported as
// replies and never stored.
type commandHandler struct {
	api      sender
	led      *ledger.Ledger
	channels *ChannelList
	notifier *notify.Notifier
	balances balanceClient
	logger   *zap.Logger
}

func (h *commandHandler) handle(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	h.logger.Debug("Command received", zap.String("command", cmd))

	switch cmd {
	case "start":
		h.notifier.SetDestination(NewChatDestination(h.api, msg.Chat.ID))
		h.reply(msg, "👋 Sniper bot ready. This chat now receives trade notifications.\n\n"+helpText)
	case "help":
		h.reply(msg, helpText)
	case "settings":
		h.reply(msg, h.settingsText())
	case "set_investment":
		h.setInvestment(msg, args)
	case "set_take_profit":
		h.setTakeProfit(msg, args)
	case "wallets":
		h.reply(msg, h.walletsText())
	case "use_wallet":
		h.useWallet(msg, args)
	case "create_wallet":
		h.createWallet(msg, args)
	case "wallet_info":
		h.walletInfo(ctx, msg)
	case "positions":
		h.reply(msg, h.positionsText())
	case "add_channel":
		h.addChannel(msg, args)
	case "remove_channel":
		h.removeChannel(msg, args)
	case "list_channels":
		h.reply(msg, h.channelsText())
	default:
		h.reply(msg, "Unknown command. Try /help.")
	}
}

func (h *commandHandler) settingsText() string {
	s := h.led.Settings()
	return fmt.Sprintf(
		"⚙️ Settings:\nInvestment: %.4f SOL\nTake-profit: %.1f%%\nSell per trigger: %.1f%%\nMax slippage: %.1f%%\nTokens traded: %d",
		s.InitialInvestmentSOL, s.TakeProfitPercent, s.SellPercentPerTrigger, s.MaxSlippagePercent, h.led.TradedCount())
}

func (h *commandHandler) setInvestment(msg *tgbotapi.Message, args string) {
	v, err := strconv.ParseFloat(args, 64)
	if err != nil {
		h.reply(msg, "Usage: /set_investment <sol>, e.g. /set_investment 0.1")
		return
	}

	s := h.led.Settings()
	s.InitialInvestmentSOL = v
	if err := h.led.UpdateSettings(s); err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}
	h.reply(msg, fmt.Sprintf("✅ Investment set to %.4f SOL", v))
}

func (h *commandHandler) setTakeProfit(msg *tgbotapi.Message, args string) {
	v, err := strconv.ParseFloat(args, 64)
	if err != nil {
		h.reply(msg, "Usage: /set_take_profit <percent>, e.g. /set_take_profit 30")
		return
	}

	s := h.led.Settings()
	s.TakeProfitPercent = v
	if err := h.led.UpdateSettings(s); err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}
	h.reply(msg, fmt.Sprintf("✅ Take-profit set to %.1f%%", v))
}

func (h *commandHandler) walletsText() string {
	infos := h.led.Wallets()
	if len(infos) == 0 {
		return "No wallets yet. Use /create_wallet <name>."
	}

	var b strings.Builder
	b.WriteString("👛 Wallets:\n")
	for i, info := range infos {
		marker := "  "
		if info.Active {
			marker = "▶ "
		}
		fmt.Fprintf(&b, "%s%d. %s `%s`\n", marker, i, info.Name, info.PublicKey)
	}
	return b.String()
}

func (h *commandHandler) useWallet(msg *tgbotapi.Message, args string) {
	idx, err := strconv.Atoi(args)
	if err != nil {
		h.reply(msg, "Usage: /use_wallet <index>")
		return
	}
	if err := h.led.SelectWallet(idx); err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}
	h.reply(msg, fmt.Sprintf("✅ Wallet %d is now active", idx))
}

func (h *commandHandler) createWallet(msg *tgbotapi.Message, args string) {
	name := args
	if name == "" {
		name = fmt.Sprintf("Wallet %d", len(h.led.Wallets())+1)
	}

	w, err := wallet.Generate(name)
	if err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}
	if err := h.led.AddWallet(w, false); err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}
	h.reply(msg, fmt.Sprintf("✅ Created wallet %q\n`%s`", name, w.PublicKey))
}

func (h *commandHandler) walletInfo(ctx context.Context, msg *tgbotapi.Message) {
	w, err := h.led.ActiveWallet()
	if err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}

	balanceText := "unavailable"
	if lamports, err := h.balances.GetBalance(ctx, w.PublicKey); err == nil {
		balanceText = fmt.Sprintf("%.4f SOL", swap.LamportsToSol(lamports))
	} else {
		h.logger.Warn("Balance lookup failed", zap.Error(err))
	}

	h.reply(msg, fmt.Sprintf("👛 %s\nAddress: `%s`\nKey: `%s`\nBalance: %s",
		w.Name, w.PublicKey, w.MaskedKey(), balanceText))
}

func (h *commandHandler) positionsText() string {
	positions := h.led.OpenPositions()
	if len(positions) == 0 {
		return "No open positions."
	}

	var b strings.Builder
	b.WriteString("📈 Open positions:\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "`%s` from %s\n  %.6f tokens, entry %.9f SOL, target %.9f SOL\n",
			p.TokenMint, p.SourceChannel,
			swap.RawToTokens(p.RemainingQuantityRaw), p.EntryPrice, p.TakeProfitPrice)
	}
	return b.String()
}

func (h *commandHandler) addChannel(msg *tgbotapi.Message, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		h.reply(msg, "Usage: /add_channel <id> <name>")
		return
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		h.reply(msg, "Channel ID must be a number, e.g. -1001234567890")
		return
	}
	name := strings.Join(fields[1:], " ")

	if err := h.channels.Add(name, id); err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}
	h.reply(msg, fmt.Sprintf("✅ Monitoring %q (%d)", name, id))
}

func (h *commandHandler) removeChannel(msg *tgbotapi.Message, args string) {
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		h.reply(msg, "Usage: /remove_channel <id>")
		return
	}
	if err := h.channels.Remove(id); err != nil {
		h.reply(msg, "❌ "+err.Error())
		return
	}
	h.reply(msg, fmt.Sprintf("✅ Stopped monitoring %d", id))
}

func (h *commandHandler) channelsText() string {
	channels := h.channels.All()
	if len(channels) == 0 {
		return "No monitored channels. Use /add_channel <id> <name>."
	}

	var b strings.Builder
	b.WriteString("📡 Monitored channels:\n")
	for _, c := range channels {
		fmt.Fprintf(&b, "%s (%d)\n", c.Name, c.ID)
	}
	return b.String()
}

func (h *commandHandler) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.api.Send(out); err != nil {
		h.logger.Warn("Failed to send reply", zap.Error(err))
	}
}

// internal/telegram/destination.go
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the slice of the bot API used for outbound messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatDestination delivers notifications to one Telegram chat.
type ChatDestination struct {
	api    sender
	chatID int64
}

func NewChatDestination(api sender, chatID int64) *ChatDestination {
	return &ChatDestination{api: api, chatID: chatID}
}

func (d *ChatDestination) Send(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(d.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := d.api.Send(msg)
	return err
}

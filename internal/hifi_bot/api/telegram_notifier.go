package api

import (
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageSender is the part of tgbotapi.BotAPI the notifier needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts staff notifications to the admin chat.
type TelegramNotifier struct {
	bot    MessageSender
	chatID int64
}

// NewTelegramNotifier returns a notifier writing to chatID.
func NewTelegramNotifier(bot MessageSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// Notify sends text as Markdown. The bot API call takes no context, so ctx is only checked up front.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification to chat %d: %w", n.chatID, err)
	}
	return nil
}

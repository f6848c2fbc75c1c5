package api

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type recordingSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, r.err
}

func TestTelegramNotifierNotify(t *testing.T) {
	sender := &recordingSender{}
	n := NewTelegramNotifier(sender, -100500)

	if err := n.Notify(context.Background(), "*new booking*"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent: got %d messages", len(sender.sent))
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected chattable %T", sender.sent[0])
	}
	if msg.ChatID != -100500 || msg.Text != "*new booking*" || msg.ParseMode != tgbotapi.ModeMarkdown {
		t.Errorf("message: got chat=%d text=%q mode=%q", msg.ChatID, msg.Text, msg.ParseMode)
	}
}

func TestTelegramNotifierErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("blocked")}
	n := NewTelegramNotifier(sender, 1)
	if err := n.Notify(context.Background(), "x"); err == nil {
		t.Error("expected send error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender.err = nil
	if err := n.Notify(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: got %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("cancelled notify must not send, sent %d", len(sender.sent))
	}
}

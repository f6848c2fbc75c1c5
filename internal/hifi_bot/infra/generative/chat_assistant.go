package generative

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	botServ "github.com/DenisKhanov/HiFiBot/internal/hifi_bot/service"
	"github.com/google/uuid"
)

// ErrNoReply is returned by LatestReply when the thread has no assistant answer yet.
var ErrNoReply = errors.New("thread has no assistant reply")

// DialogStore keeps locally emulated threads.
type DialogStore interface {
	OpenThread(threadID string)
	SaveMsgToDialog(threadID string, msg models.Message) error
	GetDialogHistory(threadID string) ([]models.Message, error)
}

// ChatAssistant gives a stateless chat-completion model the thread semantics of a hosted assistant.
type ChatAssistant struct {
	model        botServ.GenerativeModel
	dialogs      DialogStore
	instructions string
}

// NewChatAssistant wraps model. instructions is sent as the system message of every request.
func NewChatAssistant(model botServ.GenerativeModel, dialogs DialogStore, instructions string) *ChatAssistant {
	return &ChatAssistant{model: model, dialogs: dialogs, instructions: instructions}
}

// CreateThread opens a dialog under a fresh UUID.
func (c *ChatAssistant) CreateThread(_ context.Context) (string, error) {
	threadID := uuid.NewString()
	c.dialogs.OpenThread(threadID)
	return threadID, nil
}

// PostUserMessage appends a user turn. Threads unknown to the store (e.g. lost on restart)
// are reopened empty.
func (c *ChatAssistant) PostUserMessage(_ context.Context, threadID, text string) error {
	c.dialogs.OpenThread(threadID)
	return c.dialogs.SaveMsgToDialog(threadID, models.Message{Role: models.RoleUser, Content: text})
}

// RunAndWait asks the model to answer the thread and stores the answer.
func (c *ChatAssistant) RunAndWait(ctx context.Context, threadID string) error {
	history, err := c.dialogs.GetDialogHistory(threadID)
	if err != nil {
		return err
	}
	request := make([]models.Message, 0, len(history)+1)
	if c.instructions != "" {
		request = append(request, models.Message{Role: models.RoleSystem, Content: c.instructions})
	}
	request = append(request, history...)

	answer, err := c.model.GenerateReply(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to generate reply: %w", err)
	}
	return c.dialogs.SaveMsgToDialog(threadID, models.Message{Role: models.RoleAssistant, Content: answer})
}

// LatestReply returns the newest assistant message of the thread.
func (c *ChatAssistant) LatestReply(_ context.Context, threadID string) (string, error) {
	history, err := c.dialogs.GetDialogHistory(threadID)
	if err != nil {
		return "", err
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			return history[i].Content, nil
		}
	}
	return "", ErrNoReply
}

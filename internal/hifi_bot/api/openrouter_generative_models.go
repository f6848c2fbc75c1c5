package api

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/sirupsen/logrus"
	"github.com/wojtess/openrouter-api-go"
	"strings"
)

// OpenRouterAPI answers dialogs through OpenRouter.
type OpenRouterAPI struct {
	client    *openrouterapigo.OpenRouterClient // Клиент для взаимодействия с API
	modelName string                            // Версия генеративной модели
}

// NewOpenRouterAPI создает новый экземпляр OpenRouterAPI. Sampling settings are left to
// the model defaults configured on the OpenRouter side.
func NewOpenRouterAPI(apiKey string, modelName string) (*OpenRouterAPI, error) {
	return &OpenRouterAPI{
		client:    openrouterapigo.NewOpenRouterClient(apiKey),
		modelName: modelName,
	}, nil
}

// GenerateReply folds the dialog into a single prompt. The client has no context support,
// so the call runs in its own goroutine and ctx only bounds how long we wait for it.
func (d *OpenRouterAPI) GenerateReply(ctx context.Context, history []models.Message) (string, error) {
	if len(history) == 0 {
		return "", ErrEmptyHistory
	}

	chatReq := openrouterapigo.Request{
		Model: d.modelName,
		Messages: []openrouterapigo.MessageRequest{
			{Role: openrouterapigo.RoleUser, Content: transcript(history)},
		},
		Stream: false,
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := d.client.FetchChatCompletions(chatReq)
		if err != nil {
			done <- result{err: err}
			return
		}
		if len(resp.Choices) == 0 {
			done <- result{err: fmt.Errorf("no choices returned from %s", d.modelName)}
			return
		}
		done <- result{text: resp.Choices[0].Message.Content}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			err := fmt.Errorf("failed to create request: %w", res.err)
			logrus.WithError(err).Errorf("Error creating %s request", d.modelName)
			return "", err
		}
		return res.text, nil
	}
}

// transcript renders a dialog as plain text for providers that accept a single user message.
func transcript(history []models.Message) string {
	var b strings.Builder
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case models.RoleSystem:
			b.WriteString("Инструкция:\n")
		case models.RoleAssistant:
			b.WriteString("Ассистент:\n")
		default:
			b.WriteString("Клиент:\n")
		}
		b.WriteString(msg.Content)
	}
	if history[len(history)-1].Role == models.RoleUser {
		b.WriteString("\n\nАссистент:\n")
	}
	return b.String()
}

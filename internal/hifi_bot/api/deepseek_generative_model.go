package api

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/go-deepseek/deepseek"
	"github.com/go-deepseek/deepseek/request"
	"github.com/sirupsen/logrus"
)

// DeepSeekAPI answers dialogs through the DeepSeek chat completions endpoint.
type DeepSeekAPI struct {
	client      deepseek.Client // Клиент для взаимодействия с API
	modelName   string          // Версия генеративной модели
	maxTokens   int             // Максимальное количество токенов (опционально)
	temperature float32         // Температура для управления креативностью (опционально)
}

// NewDeepSeekAPI создает новый экземпляр DeepSeekAPI
func NewDeepSeekAPI(apiKey string, modelName string, maxTokens int, temperature float32) (*DeepSeekAPI, error) {
	client, err := deepseek.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create DeepSeek client: %w", err)
	}

	return &DeepSeekAPI{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// GenerateReply sends the whole dialog and returns the model answer.
func (d *DeepSeekAPI) GenerateReply(ctx context.Context, history []models.Message) (string, error) {
	if len(history) == 0 {
		return "", ErrEmptyHistory
	}
	messages := make([]*request.Message, 0, len(history))
	for _, msg := range history {
		messages = append(messages, &request.Message{Role: msg.Role, Content: msg.Content})
	}

	temperature := d.temperature
	chatReq := &request.ChatCompletionsRequest{
		Model:       d.modelName,
		Stream:      false,
		Messages:    messages,
		MaxTokens:   d.maxTokens,
		Temperature: &temperature,
	}

	resp, err := d.client.CallChatCompletionsChat(ctx, chatReq)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		logrus.WithError(err).Error("Error creating DeepSeek request")
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from DeepSeek API")
	}
	return resp.Choices[0].Message.Content, nil
}

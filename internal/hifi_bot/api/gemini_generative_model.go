package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"strings"
)

// ErrEmptyHistory is returned when a model is asked to answer a dialog without a user turn.
var ErrEmptyHistory = errors.New("dialog has no user message to answer")

// GeminiAPI представляет структуру для работы с Gemini API
type GeminiAPI struct {
	client      *genai.Client // Клиент для взаимодействия с API
	modelName   string        // Версия генеративной модели
	maxTokens   int           // Максимальное количество токенов (опционально)
	temperature float32       // Температура для управления креативностью (опционально)
}

// NewGeminiAPI создает новый экземпляр GeminiAPI
func NewGeminiAPI(apiKey string, modelName string, maxTokens int, temperature float32, opts ...option.ClientOption) (*GeminiAPI, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiAPI{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// GenerateReply answers the last user message of history. System messages become the model
// instruction, earlier turns are replayed as chat history.
func (g *GeminiAPI) GenerateReply(ctx context.Context, history []models.Message) (string, error) {
	model := g.newModel()

	var system []string
	var turns []models.Message
	for _, msg := range history {
		if msg.Role == models.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != models.RoleUser {
		return "", ErrEmptyHistory
	}

	cs := model.StartChat()
	for _, msg := range turns[:len(turns)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  geminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		logrus.WithError(err).Error("Error creating Gemini request")
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from Gemini API")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (g *GeminiAPI) Close() error {
	return g.client.Close()
}

func (g *GeminiAPI) newModel() *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	if g.maxTokens > 0 {
		maxToken := int32(g.maxTokens)
		model.MaxOutputTokens = &maxToken
	}
	if g.temperature >= 0 && g.temperature <= 1 {
		temperature := g.temperature
		model.Temperature = &temperature
	}
	return model
}

func geminiRole(role string) string {
	if role == models.RoleAssistant {
		return "model"
	}
	return "user"
}

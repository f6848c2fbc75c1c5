package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"strings"
	"sync"
	"time"
)

// ErrNoAssistantReply is returned when a thread has no assistant text message yet.
var ErrNoAssistantReply = errors.New("no assistant reply in thread")

// OpenAIAssistantAPI работает с OpenAI Assistants API: треды, сообщения и запуски ассистента
type OpenAIAssistantAPI struct {
	client       *openai.Client    // Клиент для взаимодействия с API
	assistantID  string            // ID ассистента (asst_...)
	modelName    string            // Переопределение модели для запуска, пусто - модель ассистента
	pollInterval time.Duration     // Интервал опроса статуса запуска
	activeRuns   map[string]string // Незавершённые запуски по ID треда
	mu           sync.Mutex        // Protects activeRuns
}

// NewOpenAIAssistantAPI создает новый экземпляр OpenAIAssistantAPI
func NewOpenAIAssistantAPI(apiKey, assistantID, modelName string, pollInterval time.Duration) (*OpenAIAssistantAPI, error) {
	if apiKey == "" || assistantID == "" {
		return nil, errors.New("openai api key and assistant id are required")
	}
	return newOpenAIAssistant(openai.NewClient(apiKey), assistantID, modelName, pollInterval), nil
}

// NewOpenAIAssistantWithConfig uses a prepared client configuration (custom base URL or HTTP client).
func NewOpenAIAssistantWithConfig(cfg openai.ClientConfig, assistantID, modelName string, pollInterval time.Duration) *OpenAIAssistantAPI {
	return newOpenAIAssistant(openai.NewClientWithConfig(cfg), assistantID, modelName, pollInterval)
}

func newOpenAIAssistant(client *openai.Client, assistantID, modelName string, pollInterval time.Duration) *OpenAIAssistantAPI {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &OpenAIAssistantAPI{
		client:       client,
		assistantID:  assistantID,
		modelName:    modelName,
		pollInterval: pollInterval,
		activeRuns:   make(map[string]string),
	}
}

// CreateThread opens a new server-side conversation.
func (o *OpenAIAssistantAPI) CreateThread(ctx context.Context) (string, error) {
	thread, err := o.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

// PostUserMessage adds a user message to the thread.
// A run left unfinished by an earlier exchange is awaited first: the thread accepts no messages
// while a run is active, and the new message must get a run of its own.
func (o *OpenAIAssistantAPI) PostUserMessage(ctx context.Context, threadID, text string) error {
	if runID := o.activeRun(threadID); runID != "" {
		err := o.awaitRun(ctx, threadID, runID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("previous run %s still active on thread %s: %w", runID, threadID, ctxErr)
		}
		if err != nil {
			logrus.WithError(err).WithField("run", runID).Warn("Previous assistant run did not complete")
		}
		o.setActiveRun(threadID, "")
	}

	_, err := o.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	if err != nil {
		return fmt.Errorf("failed to post message to thread %s: %w", threadID, err)
	}
	return nil
}

// RunAndWait starts the assistant on the thread and polls until the run finishes.
// Within one exchange a run left unfinished by a timed out attempt is awaited instead of
// starting a second one; PostUserMessage closes the exchange.
func (o *OpenAIAssistantAPI) RunAndWait(ctx context.Context, threadID string) error {
	runID := o.activeRun(threadID)
	if runID == "" {
		run, err := o.client.CreateRun(ctx, threadID, openai.RunRequest{
			AssistantID: o.assistantID,
			Model:       o.modelName,
		})
		if err != nil {
			return fmt.Errorf("failed to create run on thread %s: %w", threadID, err)
		}
		runID = run.ID
		o.setActiveRun(threadID, runID)
	}

	err := o.awaitRun(ctx, threadID, runID)
	if ctx.Err() != nil {
		logrus.WithField("run", runID).Warn("Stopped waiting for assistant run")
		return err
	}
	o.setActiveRun(threadID, "")
	return err
}

// awaitRun polls the run until it reaches a terminal status or ctx ends.
func (o *OpenAIAssistantAPI) awaitRun(ctx context.Context, threadID, runID string) error {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	for {
		run, err := o.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to retrieve run %s: %w", runID, err)
		}
		switch run.Status {
		case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
		case openai.RunStatusCompleted:
			return nil
		default:
			return fmt.Errorf("run %s finished with status %s", runID, run.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LatestReply returns the text of the newest assistant message in the thread.
func (o *OpenAIAssistantAPI) LatestReply(ctx context.Context, threadID string) (string, error) {
	limit := 10
	order := "desc"
	list, err := o.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list messages of thread %s: %w", threadID, err)
	}
	for _, msg := range list.Messages {
		if msg.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		var sb strings.Builder
		for _, content := range msg.Content {
			if content.Text != nil {
				sb.WriteString(content.Text.Value)
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoAssistantReply, threadID)
}

func (o *OpenAIAssistantAPI) activeRun(threadID string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeRuns[threadID]
}

func (o *OpenAIAssistantAPI) setActiveRun(threadID, runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if runID == "" {
		delete(o.activeRuns, threadID)
		return
	}
	o.activeRuns[threadID] = runID
}

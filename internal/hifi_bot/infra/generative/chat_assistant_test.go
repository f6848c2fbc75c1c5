package generative

import (
	"context"
	"errors"
	"testing"

	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/config"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/repository"
)

type scriptedModel struct {
	answers  []string
	err      error
	requests [][]models.Message
}

func (s *scriptedModel) GenerateReply(_ context.Context, history []models.Message) (string, error) {
	s.requests = append(s.requests, history)
	if s.err != nil {
		return "", s.err
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func TestChatAssistantThread(t *testing.T) {
	model := &scriptedModel{answers: []string{`{"intent":"consult","answer":"a1"}`, `{"intent":"consult","answer":"a2"}`}}
	dialogs := repository.NewDialogHistory("", 0)
	ca := NewChatAssistant(model, dialogs, "system prompt")
	ctx := context.Background()

	threadID, err := ca.CreateThread(ctx)
	if err != nil || threadID == "" {
		t.Fatalf("CreateThread: %q, %v", threadID, err)
	}
	if _, err = ca.LatestReply(ctx, threadID); !errors.Is(err, ErrNoReply) {
		t.Errorf("empty thread: got %v", err)
	}

	for i, q := range []string{"q1", "q2"} {
		if err = ca.PostUserMessage(ctx, threadID, q); err != nil {
			t.Fatalf("PostUserMessage: %v", err)
		}
		if err = ca.RunAndWait(ctx, threadID); err != nil {
			t.Fatalf("RunAndWait: %v", err)
		}
		reply, err := ca.LatestReply(ctx, threadID)
		if err != nil {
			t.Fatalf("LatestReply: %v", err)
		}
		want := []string{`{"intent":"consult","answer":"a1"}`, `{"intent":"consult","answer":"a2"}`}[i]
		if reply != want {
			t.Errorf("turn %d: got %q", i, reply)
		}
	}

	last := model.requests[1]
	if len(last) != 4 {
		t.Fatalf("second request: got %d messages, want 4", len(last))
	}
	if last[0].Role != models.RoleSystem || last[0].Content != "system prompt" {
		t.Errorf("first message should be the system prompt, got %+v", last[0])
	}
	if last[3].Role != models.RoleUser || last[3].Content != "q2" {
		t.Errorf("last message: got %+v", last[3])
	}
}

func TestChatAssistantUnknownThreadReopened(t *testing.T) {
	model := &scriptedModel{answers: []string{"plain"}}
	ca := NewChatAssistant(model, repository.NewDialogHistory("", 0), "")
	ctx := context.Background()

	if err := ca.PostUserMessage(ctx, "from-client", "hi"); err != nil {
		t.Fatalf("PostUserMessage: %v", err)
	}
	if err := ca.RunAndWait(ctx, "from-client"); err != nil {
		t.Fatalf("RunAndWait: %v", err)
	}
	if len(model.requests[0]) != 1 {
		t.Errorf("no system message expected without instructions, got %+v", model.requests[0])
	}
}

func TestChatAssistantModelFailure(t *testing.T) {
	model := &scriptedModel{err: errors.New("quota")}
	dialogs := repository.NewDialogHistory("", 0)
	ca := NewChatAssistant(model, dialogs, "")
	ctx := context.Background()

	threadID, _ := ca.CreateThread(ctx)
	_ = ca.PostUserMessage(ctx, threadID, "hi")
	if err := ca.RunAndWait(ctx, threadID); err == nil {
		t.Fatal("expected model error")
	}
	history, _ := dialogs.GetDialogHistory(threadID)
	if len(history) != 1 {
		t.Errorf("failed run must not store an answer, history %+v", history)
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	cfg := &config.Config{EnvAssistantProvider: "llama"}
	if _, err := AssistantFactory(cfg, repository.NewDialogHistory("", 0)); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestFactoryOpenRouterIsWrapped(t *testing.T) {
	cfg := &config.Config{EnvAssistantProvider: "openrouter", EnvGenerativeApiKey: "k", EnvGenerativeModel: "m"}
	provider, err := AssistantFactory(cfg, repository.NewDialogHistory("", 0))
	if err != nil {
		t.Fatalf("AssistantFactory: %v", err)
	}
	if _, ok := provider.(*ChatAssistant); !ok {
		t.Errorf("got %T, want *ChatAssistant", provider)
	}
}

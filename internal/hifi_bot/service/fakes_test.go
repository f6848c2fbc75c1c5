package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errRemote = errors.New("remote unavailable")

// fakeProvider is an in-memory assistant. Replies are consumed in order.
type fakeProvider struct {
	mu         sync.Mutex
	threads    int
	posted     map[string][]string
	replies    []string
	failOn     map[string]int // step -> number of calls that fail
	calls      map[string]int
	panicOnRun bool
}

func newFakeProvider(replies ...string) *fakeProvider {
	return &fakeProvider{
		posted:  make(map[string][]string),
		replies: replies,
		failOn:  make(map[string]int),
		calls:   make(map[string]int),
	}
}

func (f *fakeProvider) fail(step string) error {
	f.calls[step]++
	if f.failOn[step] > 0 {
		f.failOn[step]--
		return fmt.Errorf("%s: %w", step, errRemote)
	}
	return nil
}

func (f *fakeProvider) CreateThread(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create"); err != nil {
		return "", err
	}
	f.threads++
	return fmt.Sprintf("thread_%d", f.threads), nil
}

func (f *fakeProvider) PostUserMessage(_ context.Context, threadID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("post"); err != nil {
		return err
	}
	f.posted[threadID] = append(f.posted[threadID], text)
	return nil
}

func (f *fakeProvider) RunAndWait(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnRun {
		panic("provider bug")
	}
	return f.fail("run")
}

func (f *fakeProvider) LatestReply(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("fetch"); err != nil {
		return "", err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

// fakeAssistant returns queued intents and records what it was asked.
type fakeAssistant struct {
	mu      sync.Mutex
	intents []models.Intent
	tokens  []string // token returned on success, "" keeps the incoming one
	asked   []string
	seen    []string // incoming tokens
}

func (f *fakeAssistant) Ask(_ context.Context, utterance, token string) (models.Intent, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, utterance)
	f.seen = append(f.seen, token)
	intent := f.intents[0]
	f.intents = f.intents[1:]
	next := token
	if len(f.tokens) > 0 {
		if f.tokens[0] != "" {
			next = f.tokens[0]
		}
		f.tokens = f.tokens[1:]
	}
	if _, failed := intent.(models.ErrorIntent); failed {
		next = token
	}
	return intent, next
}

type commitCall struct{ name, phone, date, comment string }

type fakeSink struct {
	mu     sync.Mutex
	calls  []commitCall
	result bool
}

func (f *fakeSink) Commit(_ context.Context, name, phone, date, comment string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, commitCall{name, phone, date, comment})
	return f.result
}

type fakeAppender struct {
	err     error
	records []models.BookingRecord
}

func (f *fakeAppender) Append(_ context.Context, rec models.BookingRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeNotifier struct {
	err   error
	texts []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

type fakeOutbox struct {
	pending []models.PendingBooking
	seq     int
}

func (f *fakeOutbox) Enqueue(rec models.BookingRecord) error {
	f.seq++
	f.pending = append(f.pending, models.PendingBooking{Key: fmt.Sprintf("k%d", f.seq), Record: rec})
	return nil
}

func (f *fakeOutbox) Pending() ([]models.PendingBooking, error) {
	return append([]models.PendingBooking(nil), f.pending...), nil
}

func (f *fakeOutbox) Remove(key string) error {
	for i, p := range f.pending {
		if p.Key == key {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

// memStore is a minimal SessionStore; err makes every call fail.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	err      error
}

func newMemStore() *memStore { return &memStore{sessions: make(map[string]models.Session)} }

func (m *memStore) Get(_ context.Context, id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.Session{}, m.err
	}
	return m.sessions[id].Clone(), nil
}

func (m *memStore) Put(_ context.Context, id string, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sessions[id] = s.Clone()
	return nil
}

// fakeBot records sent messages.
type fakeBot struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	actions  int
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	for i, m := range f.messages {
		out[i] = m.Text
	}
	return out
}

// Package service provides the intake core of the bot: the assistant gateway, the orchestrator
// that turns assistant decisions into replies, the booking sink and the Telegram adapter.
package service

import (
	"context"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
)

// AssistantProvider is a remote assistant with server-side conversation threads.
type AssistantProvider interface {
	CreateThread(ctx context.Context) (string, error)                 // Opens a new conversation, returns its ID
	PostUserMessage(ctx context.Context, threadID, text string) error // Adds a user turn
	RunAndWait(ctx context.Context, threadID string) error            // Blocks until the assistant has answered
	LatestReply(ctx context.Context, threadID string) (string, error) // Text of the newest assistant message
}

// GenerativeModel is a stateless chat-completion model.
type GenerativeModel interface {
	GenerateReply(ctx context.Context, history []models.Message) (string, error)
}

// SessionStore keeps per-conversation state between turns.
type SessionStore interface {
	Get(ctx context.Context, conversationID string) (models.Session, error)
	Put(ctx context.Context, conversationID string, session models.Session) error
}

// Assistant turns a user utterance into a structured intent.
type Assistant interface {
	Ask(ctx context.Context, utterance, token string) (models.Intent, string)
}

// Sink records finalized bookings.
type Sink interface {
	Commit(ctx context.Context, name, phone, date, comment string) bool
}

// RecordAppender appends a booking to durable storage.
type RecordAppender interface {
	Append(ctx context.Context, rec models.BookingRecord) error
}

// Notifier delivers a message to the staff channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Outbox keeps bookings whose append failed until they are delivered.
type Outbox interface {
	Enqueue(rec models.BookingRecord) error
	Pending() ([]models.PendingBooking, error)
	Remove(key string) error
}

// TurnHandler is the single entry point shared by all channels.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn models.Turn) (models.Reply, error)
}

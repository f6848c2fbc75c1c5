package service

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/constant"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/sirupsen/logrus"
)

// Orchestrator drives one conversational turn for every channel.
type Orchestrator struct {
	sessions  SessionStore
	assistant Assistant
	sink      Sink
}

// NewOrchestrator creates an Orchestrator with its collaborators.
func NewOrchestrator(sessions SessionStore, assistant Assistant, sink Sink) *Orchestrator {
	return &Orchestrator{sessions: sessions, assistant: assistant, sink: sink}
}

// HandleTurn asks the assistant about turn.Utterance and decides what to answer.
// The continuation token is saved to the session before the intent is acted upon.
// Only session store failures are returned as errors.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn models.Turn) (models.Reply, error) {
	var session models.Session
	convID := turn.ConversationID
	if convID != "" {
		var err error
		if session, err = o.sessions.Get(ctx, convID); err != nil {
			return models.Reply{}, fmt.Errorf("failed to load session: %w", err)
		}
	}
	if turn.Token != "" {
		session.Token = turn.Token
	}

	intent, token := o.assistant.Ask(ctx, turn.Utterance, session.Token)
	session.Token = token
	if convID == "" && token != "" {
		convID = turn.TokenKeyPrefix + token
	}
	if convID != "" {
		if err := o.sessions.Put(ctx, convID, session); err != nil {
			return models.Reply{}, fmt.Errorf("failed to save session: %w", err)
		}
	}

	log := logrus.WithFields(logrus.Fields{"conversation": convID, "intent": intent.Kind()})
	var text string
	switch in := intent.(type) {
	case models.NeedsMoreInfo:
		text = in.NextQuestion
	case models.Booking:
		// The booking is confirmed even when the sink fails: the record waits in the outbox
		// and is appended by a later retry.
		text = constant.BookingAcceptedReply
		if !o.sink.Commit(ctx, in.Name, in.Phone, in.Date, in.Comment) {
			log.Warn("Booking was not recorded, confirmed anyway")
		}
	case models.Consult:
		text = in.Answer
	case models.ErrorIntent:
		log.WithField("reason", in.Reason).Error("Assistant turn failed")
		text = constant.AssistantErrorReply
	default:
		log.Errorf("Unexpected intent type %T", intent)
		text = constant.AssistantErrorReply
	}
	if text == "" {
		text = constant.EmptyAnswerReply
	}
	return models.Reply{Text: text, Token: token, Intent: intent}, nil
}

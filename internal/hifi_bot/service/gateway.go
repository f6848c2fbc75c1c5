package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/sirupsen/logrus"
	"time"
)

// ErrEmptyThreadID is returned when the provider opens a thread without an ID.
var ErrEmptyThreadID = errors.New("assistant returned empty thread id")

// Gateway sends utterances to the assistant provider and decodes its replies into intents.
// Every provider call is bounded by timeout. Only the run and the reply fetch are retried:
// creating a thread or posting a message twice would duplicate it on the provider side.
type Gateway struct {
	provider AssistantProvider
	timeout  time.Duration // Per-attempt timeout, 0 leaves it to the provider
	retries  int           // Extra attempts after the first failure
}

// NewGateway creates a Gateway over provider.
// Arguments:
//   - provider: the remote assistant.
//   - timeout: limit for a single provider call.
//   - retries: how many times a failed call is repeated.
//
// Returns a pointer to a Gateway.
func NewGateway(provider AssistantProvider, timeout time.Duration, retries int) *Gateway {
	if retries < 0 {
		retries = 0
	}
	return &Gateway{provider: provider, timeout: timeout, retries: retries}
}

// Ask runs one assistant exchange. It never returns an error: remote failures become
// models.ErrorIntent together with the token that was passed in, and unstructured replies
// become models.Consult. On success the returned token identifies the thread that was used.
func (g *Gateway) Ask(ctx context.Context, utterance, token string) (intent models.Intent, newToken string) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("assistant provider panic: %v", r)
			intent, newToken = g.fail(err, token)
		}
	}()

	threadID := token
	if threadID == "" {
		err := g.call(ctx, "create thread", false, func(ctx context.Context) error {
			id, err := g.provider.CreateThread(ctx)
			if err == nil && id == "" {
				err = ErrEmptyThreadID
			}
			threadID = id
			return err
		})
		if err != nil {
			return g.fail(err, token)
		}
		logrus.WithField("thread", threadID).Debug("Assistant thread created")
	}

	if err := g.call(ctx, "post message", false, func(ctx context.Context) error {
		return g.provider.PostUserMessage(ctx, threadID, utterance)
	}); err != nil {
		return g.fail(err, token)
	}

	if err := g.call(ctx, "run", true, func(ctx context.Context) error {
		return g.provider.RunAndWait(ctx, threadID)
	}); err != nil {
		return g.fail(err, token)
	}

	var text string
	if err := g.call(ctx, "fetch reply", true, func(ctx context.Context) error {
		var err error
		text, err = g.provider.LatestReply(ctx, threadID)
		return err
	}); err != nil {
		return g.fail(err, token)
	}

	intent = ParseIntent(text)
	logrus.WithFields(logrus.Fields{"thread": threadID, "intent": intent.Kind()}).Info("Assistant replied")
	return intent, threadID
}

// call runs fn with a per-attempt timeout. A retryable step is repeated after a failure,
// cancellation of the parent context stops the retries.
func (g *Gateway) call(ctx context.Context, step string, retryable bool, fn func(context.Context) error) error {
	attempts := 1
	if retryable {
		attempts += g.retries
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			break
		}
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if g.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, g.timeout)
		}
		err = fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"step": step, "attempt": attempt + 1}).Warn("Assistant call failed")
	}
	return fmt.Errorf("assistant %s: %w", step, err)
}

func (g *Gateway) fail(err error, token string) (models.Intent, string) {
	logrus.WithError(err).Error("Assistant exchange failed")
	return models.ErrorIntent{Reason: err.Error()}, token
}

// Package http exposes the bot over HTTP for the website widget.
package http

import (
	"context"
	"errors"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/constant"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"net/http"
	"strings"
)

// TurnHandler processes one user turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn models.Turn) (models.Reply, error)
}

// webhookRequest is the widget payload. Both fields are optional on the wire.
type webhookRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

type Handler struct {
	turns TurnHandler
}

func NewHandler(turns TurnHandler) *Handler {
	return &Handler{
		turns: turns,
	}
}

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": constant.HealthMessage})
}

// Webhook answers a message from the website widget.
//
// A body that is not valid JSON is treated as an empty object. The thread_id the client got
// from a previous answer continues the same conversation.
func (h *Handler) Webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request too large"})
			return
		}
		logrus.WithError(err).Debug("Webhook body is not valid JSON, treating as empty")
		req = webhookRequest{}
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message"})
		return
	}
	threadID := strings.TrimSpace(req.ThreadID)

	reply, err := h.turns.HandleTurn(c.Request.Context(), models.Turn{
		ConversationID: conversationID(threadID),
		TokenKeyPrefix: webKeyPrefix,
		Utterance:      message,
		Token:          threadID,
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to handle webhook message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "details": err.Error()})
		return
	}

	var token interface{}
	if reply.Token != "" {
		token = reply.Token
	}
	c.JSON(http.StatusOK, gin.H{"answer": reply.Text, "thread_id": token})
}

const webKeyPrefix = "web:"

// conversationID keys web sessions by the assistant thread. A first message has no key until
// the assistant opens a thread.
func conversationID(threadID string) string {
	if threadID == "" {
		return ""
	}
	return webKeyPrefix + threadID
}

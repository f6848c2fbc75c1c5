package service

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/constant"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"strings"
	"sync"
	"unicode/utf8"
)

// telegramMessageLimit is the maximum length of one Telegram text message in characters.
const telegramMessageLimit = 4096

// Sender is the part of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TgBotServices is the Telegram channel: the onboarding wizard and the free-text assistant chat.
type TgBotServices struct {
	Bot      Sender       // Telegram Bot API instance
	Sessions SessionStore // Conversation sessions shared with the orchestrator
	Turns    TurnHandler  // Assistant-driven intake

	chatLocks map[int64]*chatLock // Serializes updates of one chat, dropped when idle
	mu        sync.Mutex          // Protects chatLocks
	wg        sync.WaitGroup      // In-flight updates
}

// NewTgBot creates a new TgBotServices instance with the specified dependencies.
// Arguments:
//   - bot: Telegram Bot API instance.
//   - sessions: session store, the same one the orchestrator uses.
//   - turns: the intake orchestrator.
//
// Returns a pointer to a TgBotServices.
func NewTgBot(bot Sender, sessions SessionStore, turns TurnHandler) *TgBotServices {
	return &TgBotServices{
		Bot:       bot,
		Sessions:  sessions,
		Turns:     turns,
		chatLocks: make(map[int64]*chatLock),
	}
}

// ConversationID is the session key of a Telegram chat.
func ConversationID(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

// Dispatch handles update in its own goroutine. Updates of different chats run concurrently,
// updates of the same chat one after another.
func (b *TgBotServices) Dispatch(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	lock := b.acquireChatLock(chatID)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("Panic while processing update %d: %v", update.UpdateID, r)
			}
		}()
		lock.mu.Lock()
		defer b.releaseChatLock(chatID, lock)
		b.UpdateProcessing(ctx, &update)
	}()
}

// Wait blocks until every dispatched update is processed.
func (b *TgBotServices) Wait() {
	b.wg.Wait()
}

// chatLock is the mutex of one chat; refs counts updates holding or waiting for it.
type chatLock struct {
	mu   sync.Mutex
	refs int
}

func (b *TgBotServices) acquireChatLock(chatID int64) *chatLock {
	b.mu.Lock()
	defer b.mu.Unlock()

	lock, ok := b.chatLocks[chatID]
	if !ok {
		lock = &chatLock{}
		b.chatLocks[chatID] = lock
	}
	lock.refs++
	return lock
}

func (b *TgBotServices) releaseChatLock(chatID int64, lock *chatLock) {
	lock.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(b.chatLocks, chatID)
	}
}

// activeChats reports how many chats have updates in flight.
func (b *TgBotServices) activeChats() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chatLocks)
}

// UpdateProcessing handles one incoming Telegram text message.
// Arguments:
//   - ctx: context of the polling loop.
//   - update: the Telegram update to process.
func (b *TgBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}
	convID := ConversationID(chatID)

	var err error
	switch commandName(text) {
	case constant.COMMAND_START:
		logrus.Infof("Message [%s] from %s (chat %d)", text, userName(update.Message), chatID)
		err = b.startWizard(ctx, chatID, convID)
	case constant.COMMAND_CANCEL:
		err = b.cancelWizard(ctx, chatID, convID)
	case constant.COMMAND_HELP:
		err = b.sendMessage(chatID, constant.HelpReply, 0, nil)
	default:
		err = b.continueConversation(ctx, chatID, convID, text)
	}
	if err != nil {
		logrus.WithError(err).WithField("chat", chatID).Error("Failed to process update")
	}
}

// startWizard resets the onboarding and offers the two modes.
func (b *TgBotServices) startWizard(ctx context.Context, chatID int64, convID string) error {
	session, err := b.Sessions.Get(ctx, convID)
	if err != nil {
		return b.replyStoreFailure(chatID, err)
	}
	session.ResetWizard()
	session.Step = models.StepAwaitingMode
	if err = b.Sessions.Put(ctx, convID, session); err != nil {
		return b.replyStoreFailure(chatID, err)
	}

	markup := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_BOOK),
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_CONSULT),
		),
	)
	markup.ResizeKeyboard = true
	markup.OneTimeKeyboard = true
	return b.sendMessage(chatID, constant.GreetingReply, 0, markup)
}

// cancelWizard ends the onboarding in any state. The assistant thread is kept.
func (b *TgBotServices) cancelWizard(ctx context.Context, chatID int64, convID string) error {
	session, err := b.Sessions.Get(ctx, convID)
	if err != nil {
		return b.replyStoreFailure(chatID, err)
	}
	session.ResetWizard()
	if err = b.Sessions.Put(ctx, convID, session); err != nil {
		return b.replyStoreFailure(chatID, err)
	}
	return b.sendMessage(chatID, constant.CancelReply, 0, tgbotapi.NewRemoveKeyboard(true))
}

// continueConversation advances the wizard by one step or, outside of it, asks the assistant.
func (b *TgBotServices) continueConversation(ctx context.Context, chatID int64, convID, text string) error {
	session, err := b.Sessions.Get(ctx, convID)
	if err != nil {
		return b.replyStoreFailure(chatID, err)
	}

	var reply string
	switch session.Step {
	case models.StepAwaitingMode:
		if strings.Contains(strings.ToLower(text), constant.BookingModeMarker) {
			session.Step = models.StepAwaitingName
			reply = constant.AskNameReply
		} else {
			session.Step = models.StepFreeText
			reply = constant.ConsultModeReply
		}
	case models.StepAwaitingName:
		session.Collect(models.FieldName, text)
		session.Step = models.StepAwaitingPhone
		reply = constant.AskPhoneReply
	case models.StepAwaitingPhone:
		session.Collect(models.FieldPhone, text)
		session.Step = models.StepAwaitingDate
		reply = constant.AskDateReply
	case models.StepAwaitingDate:
		session.Collect(models.FieldDate, text)
		session.Step = models.StepAwaitingComment
		reply = constant.AskCommentReply
	case models.StepAwaitingComment:
		// Собранные поля уходят ассистенту одним сообщением, запись создаёт только он
		session.Collect(models.FieldComment, text)
		utterance := WizardSummary(session.Collected)
		session.ResetWizard()
		session.Step = models.StepFreeText
		if err = b.Sessions.Put(ctx, convID, session); err != nil {
			return b.replyStoreFailure(chatID, err)
		}
		return b.askAssistant(ctx, chatID, convID, utterance)
	default:
		return b.askAssistant(ctx, chatID, convID, text)
	}

	if err = b.Sessions.Put(ctx, convID, session); err != nil {
		return b.replyStoreFailure(chatID, err)
	}
	return b.sendMessage(chatID, reply, 0, nil)
}

// askAssistant passes the utterance to the orchestrator and sends its reply.
func (b *TgBotServices) askAssistant(ctx context.Context, chatID int64, convID, utterance string) error {
	if _, err := b.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logrus.WithError(err).Debug("Failed to send typing action")
	}

	reply, err := b.Turns.HandleTurn(ctx, models.Turn{ConversationID: convID, Utterance: utterance})
	if err != nil {
		return b.replyStoreFailure(chatID, err)
	}

	for _, chunk := range splitMessage(reply.Text, telegramMessageLimit) {
		if err = b.sendMessage(chatID, chunk, 0, nil); err != nil {
			return err
		}
	}
	return nil
}

func (b *TgBotServices) replyStoreFailure(chatID int64, cause error) error {
	if err := b.sendMessage(chatID, constant.AssistantErrorReply, 0, nil); err != nil {
		logrus.WithError(err).Error("Failed to report failure to user")
	}
	return cause
}

// sendMessage sends a message to the specified chat with optional reply and markup.
// Arguments:
//   - chatID: the ID of the chat to send the message to.
//   - text: the text content of the message.
//   - replyToID: the ID of the message to reply to (0 if no reply).
//   - markup: an optional keyboard or inline markup (nil if none).
//
// Returns an error if the message fails to send.
func (b *TgBotServices) sendMessage(chatID int64, text string, replyToID int, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyToID != 0 {
		msg.ReplyToMessageID = replyToID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := b.Bot.Send(msg)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d: %s", chatID, text)
	}
	return err
}

// WizardSummary composes the utterance handed to the assistant after onboarding.
func WizardSummary(collected map[string]string) string {
	field := func(key string) string {
		if v := strings.TrimSpace(collected[key]); v != "" {
			return v
		}
		return constant.NotSpecified
	}
	return fmt.Sprintf(constant.WizardSummaryTemplate,
		field(models.FieldName),
		field(models.FieldPhone),
		field(models.FieldDate),
		field(models.FieldComment),
	)
}

// commandName returns "start" for "/start" and "/start@HiFiBot payload", empty for plain text.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}

func userName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	return msg.From.UserName
}

// splitMessage cuts text into pieces of at most limit characters.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		parts = append(parts, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

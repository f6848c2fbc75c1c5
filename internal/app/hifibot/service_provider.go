// Package hifibot wires the listening-room intake bot together and runs it.
// Every dependency is built once by ServiceProvider and passed down explicitly.
package hifibot

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/api"
	botHand "github.com/DenisKhanov/HiFiBot/internal/hifi_bot/api/http"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/config"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/infra/generative"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/repository"
	botServ "github.com/DenisKhanov/HiFiBot/internal/hifi_bot/service"
	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"sync"
)

// ServiceProvider manages the dependency injection for bot components.
type ServiceProvider struct {
	config *config.Config

	// External clients
	botAPI      *tgbotapi.BotAPI
	redisClient *redis.Client
	sheets      botServ.RecordAppender
	assistant   botServ.AssistantProvider

	// Repositories
	sessions      botServ.SessionStore
	dialogHistory *repository.DialogHistory
	outbox        *repository.BookingOutbox

	// Services
	gateway      *botServ.Gateway
	sink         *botServ.BookingSink
	orchestrator *botServ.Orchestrator
	botService   *botServ.TgBotServices

	// Handler
	handler *botHand.Handler

	botAPIOnce       sync.Once
	sheetsOnce       sync.Once
	assistantOnce    sync.Once
	sessionsOnce     sync.Once
	dialogOnce       sync.Once
	outboxOnce       sync.Once
	gatewayOnce      sync.Once
	sinkOnce         sync.Once
	orchestratorOnce sync.Once
	botServiceOnce   sync.Once
	handlerOnce      sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
func NewServiceProvider(cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{config: cfg}
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	var err error
	s.botAPIOnce.Do(func() {
		s.botAPI, err = tgbotapi.NewBotAPI(s.config.EnvBotToken)
		if err != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", err)
			s.botAPI = nil
			return
		}
		logrus.Infof("BotAPI initialized for %s", s.botAPI.Self.UserName)
	})
	if s.botAPI == nil {
		return nil, notInitialized("bot API", err)
	}
	return s.botAPI, nil
}

// Sheets returns the Google Sheets appender authorized with the service account file.
func (s *ServiceProvider) Sheets(ctx context.Context) (botServ.RecordAppender, error) {
	var err error
	s.sheetsOnce.Do(func() {
		s.sheets, err = api.NewGoogleSheets(ctx, s.config.EnvSheetID, s.config.EnvSheetName,
			option.WithCredentialsFile(s.config.EnvCredentialsPath))
		if err != nil {
			logrus.Errorf("Failed to initialize Google Sheets: %v", err)
			s.sheets = nil
			return
		}
		logrus.Info("Google Sheets initialized")
	})
	if s.sheets == nil {
		return nil, notInitialized("google sheets", err)
	}
	return s.sheets, nil
}

// DialogHistory returns the local thread storage used by chat-completion providers.
func (s *ServiceProvider) DialogHistory() *repository.DialogHistory {
	s.dialogOnce.Do(func() {
		s.dialogHistory = repository.NewDialogHistory(s.config.EnvDialogStoragePath, s.config.EnvDialogHistorySize)
		if err := s.dialogHistory.LoadDialogFromFile(); err != nil {
			logrus.Errorf("Failed to read dialog history from file: %v", err)
		} else {
			logrus.Info("DialogHistory initialized and state loaded")
		}
	})
	return s.dialogHistory
}

// Assistant returns the assistant provider selected by ASSISTANT_PROVIDER.
func (s *ServiceProvider) Assistant() (botServ.AssistantProvider, error) {
	var err error
	s.assistantOnce.Do(func() {
		s.assistant, err = generative.AssistantFactory(s.config, s.DialogHistory())
		if err != nil {
			logrus.Errorf("Failed to initialize assistant: %v", err)
			s.assistant = nil
			return
		}
		logrus.WithField("provider", s.config.EnvAssistantProvider).Info("Assistant initialized")
	})
	if s.assistant == nil {
		return nil, notInitialized("assistant", err)
	}
	return s.assistant, nil
}

// Sessions returns the session store selected by SESSION_STORE.
func (s *ServiceProvider) Sessions(ctx context.Context) (botServ.SessionStore, error) {
	var err error
	s.sessionsOnce.Do(func() {
		if s.config.EnvSessionStore != "redis" {
			s.sessions = repository.NewSessionsState()
			logrus.Info("In-memory session store initialized")
			return
		}
		client := redis.NewClient(&redis.Options{
			Addr:     s.config.EnvRedisAddr,
			Password: s.config.EnvRedisPassword,
			DB:       s.config.EnvRedisDB,
		})
		if err = client.Ping(ctx).Err(); err != nil {
			logrus.Errorf("Failed to connect to Redis at %s: %v", s.config.EnvRedisAddr, err)
			_ = client.Close()
			return
		}
		s.redisClient = client
		s.sessions = repository.NewRedisSessionState(client, s.config.EnvSessionTTL)
		logrus.WithField("addr", s.config.EnvRedisAddr).Info("Redis session store initialized")
	})
	if s.sessions == nil {
		return nil, notInitialized("session store", err)
	}
	return s.sessions, nil
}

// Outbox returns the badger queue of bookings waiting for a retry.
func (s *ServiceProvider) Outbox() (*repository.BookingOutbox, error) {
	var err error
	s.outboxOnce.Do(func() {
		s.outbox, err = repository.NewBookingOutbox(s.config.EnvOutboxPath)
		if err != nil {
			logrus.Errorf("Failed to open booking outbox: %v", err)
			s.outbox = nil
			return
		}
		logrus.WithField("path", s.config.EnvOutboxPath).Info("Booking outbox initialized")
	})
	if s.outbox == nil {
		return nil, notInitialized("booking outbox", err)
	}
	return s.outbox, nil
}

// Gateway returns the assistant gateway.
func (s *ServiceProvider) Gateway() (*botServ.Gateway, error) {
	assistant, err := s.Assistant()
	if err != nil {
		return nil, err
	}
	s.gatewayOnce.Do(func() {
		s.gateway = botServ.NewGateway(assistant, s.config.EnvAssistantTimeout, s.config.EnvAssistantRetries)
	})
	return s.gateway, nil
}

// BookingSink returns the sink writing to Google Sheets and notifying the admin chat.
func (s *ServiceProvider) BookingSink(ctx context.Context) (*botServ.BookingSink, error) {
	sheets, err := s.Sheets(ctx)
	if err != nil {
		return nil, err
	}
	botAPI, err := s.BotAPI()
	if err != nil {
		return nil, err
	}
	outbox, err := s.Outbox()
	if err != nil {
		return nil, err
	}
	s.sinkOnce.Do(func() {
		s.sink = botServ.NewBookingSink(sheets, api.NewTelegramNotifier(botAPI, s.config.EnvAdminChatID), outbox)
		logrus.Info("BookingSink initialized")
	})
	return s.sink, nil
}

// Orchestrator returns the turn handler shared by Telegram and the webhook.
func (s *ServiceProvider) Orchestrator(ctx context.Context) (*botServ.Orchestrator, error) {
	sessions, err := s.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	gateway, err := s.Gateway()
	if err != nil {
		return nil, err
	}
	sink, err := s.BookingSink(ctx)
	if err != nil {
		return nil, err
	}
	s.orchestratorOnce.Do(func() {
		s.orchestrator = botServ.NewOrchestrator(sessions, gateway, sink)
	})
	return s.orchestrator, nil
}

// BotService returns the Telegram adapter.
func (s *ServiceProvider) BotService(ctx context.Context) (*botServ.TgBotServices, error) {
	botAPI, err := s.BotAPI()
	if err != nil {
		return nil, err
	}
	sessions, err := s.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	orchestrator, err := s.Orchestrator(ctx)
	if err != nil {
		return nil, err
	}
	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewTgBot(botAPI, sessions, orchestrator)
		logrus.Info("BotService initialized")
	})
	return s.botService, nil
}

// Handler returns the HTTP handler of the webhook server.
func (s *ServiceProvider) Handler(ctx context.Context) (*botHand.Handler, error) {
	orchestrator, err := s.Orchestrator(ctx)
	if err != nil {
		return nil, err
	}
	s.handlerOnce.Do(func() {
		s.handler = botHand.NewHandler(orchestrator)
	})
	return s.handler, nil
}

// Close flushes local state and releases storage handles.
func (s *ServiceProvider) Close() {
	if s.dialogHistory != nil {
		if err := s.dialogHistory.SaveBatchToFile(); err != nil {
			logrus.WithError(err).Error("Error while saving dialog history on shutdown")
		}
	}
	if s.outbox != nil {
		if err := s.outbox.Close(); err != nil {
			logrus.WithError(err).Error("Error while closing booking outbox")
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			logrus.WithError(err).Error("Error while closing Redis client")
		}
	}
}

func notInitialized(name string, err error) error {
	if err == nil {
		return fmt.Errorf("%s not initialized", name)
	}
	return fmt.Errorf("%s not initialized: %w", name, err)
}

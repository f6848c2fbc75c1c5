package hifibot

import (
	"context"
	"errors"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/api/http"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/config"
	"github.com/DenisKhanov/HiFiBot/internal/logcfg"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"
)

const (
	dialogSaveInterval  = 5 * time.Minute
	shutdownGracePeriod = 5 * time.Second
	pollTimeoutSeconds  = 60
)

// App represents the application structure responsible for initializing dependencies
// and running the webhook server and the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
	httpServer      *nethttp.Server  // Webhook and health endpoints
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Run serves HTTP, polls Telegram unless USE_WEBHOOK is set, and blocks until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.runHTTPServer(stop)
	a.runBot(ctx)
	a.shutdown()
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
		a.initHTTPServer,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration and the logger.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	a.config = cfg
	if err = logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName); err != nil {
		logrus.WithError(err).Error("Logger configuration failed, using defaults")
	}
	return nil
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config)
	return nil
}

// initHTTPServer builds the webhook router. Building the handler initializes every service it
// depends on, so misconfiguration is reported at startup.
func (a *App) initHTTPServer(ctx context.Context) error {
	handler, err := a.serviceProvider.Handler(ctx)
	if err != nil {
		return err
	}

	if logrus.GetLevel() >= logrus.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := http.NewRouter(handler, a.config.EnvCORSOrigins, a.config.EnvWebhookRatePerMin)

	a.httpServer = &nethttp.Server{
		Addr:              a.config.EnvHTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// runHTTPServer serves until Shutdown. A listen failure stops the whole app.
func (a *App) runHTTPServer(stop context.CancelFunc) {
	logrus.Infof("HTTP server started on: %s", a.config.EnvHTTPAddr)
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		logrus.WithError(err).Error("HTTP server failed")
		stop()
	}
}

// runBot is the main loop: Telegram updates, periodic dialog saving and outbox retries.
func (a *App) runBot(ctx context.Context) {
	botService, err := a.serviceProvider.BotService(ctx)
	if err != nil {
		logrus.WithError(err).Error("Bot service is unavailable")
		return
	}
	sink, err := a.serviceProvider.BookingSink(ctx)
	if err != nil {
		logrus.WithError(err).Error("Booking sink is unavailable")
		return
	}

	var updates tgbotapi.UpdatesChannel
	if !a.config.EnvUseWebhook {
		botAPI, err := a.serviceProvider.BotAPI()
		if err != nil {
			logrus.WithError(err).Error("Bot API is unavailable")
			return
		}
		updateConfig := tgbotapi.NewUpdate(0)
		updateConfig.Timeout = pollTimeoutSeconds
		updates = botAPI.GetUpdatesChan(updateConfig)
		defer func() {
			botAPI.StopReceivingUpdates()
			botService.Wait()
		}()
		logrus.Info("Telegram long polling started")
	}

	saveTicker := time.NewTicker(dialogSaveInterval)
	defer saveTicker.Stop()
	retryInterval := a.config.EnvOutboxRetryInterval
	if retryInterval <= 0 {
		retryInterval = 5 * time.Minute
	}
	retryTicker := time.NewTicker(retryInterval)
	defer retryTicker.Stop()

	// in-flight turns finish after a shutdown signal
	turnCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Shutdown signal received, stopping main loop...")
			return
		case <-saveTicker.C:
			if err = a.serviceProvider.DialogHistory().SaveBatchToFile(); err != nil {
				logrus.WithError(err).Error("Error while saving dialog history on ticker")
			}
		case <-retryTicker.C:
			if _, err = sink.RetryPending(ctx); err != nil {
				logrus.WithError(err).Error("Error while retrying queued bookings")
			}
		case update, ok := <-updates:
			if !ok {
				logrus.Error("Telegram update chan closed")
				updates = nil
				continue
			}
			botService.Dispatch(turnCtx, update)
		}
	}
}

// shutdown stops the HTTP server and flushes local state.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown error")
	}
	a.serviceProvider.Close()
	logrus.Info("Server exited")
}

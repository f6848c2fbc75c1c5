package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel   string // Log level for the application (e.g., debug, info)
	EnvLogFileName string // File's name for log (e.g., hifibot.log)
	EnvHTTPAddr    string // Listen address of the webhook server (e.g., :5000)

	EnvBotToken    string // Telegram Bot Token for authentication with the Telegram API
	EnvAdminChatID int64  // Staff chat that receives booking notifications
	EnvUseWebhook  bool   // Serve only the HTTP webhook, no Telegram polling

	EnvCORSOrigins       []string // Origins allowed to call /webhook/*
	EnvWebhookRatePerMin int      // Requests per minute per client IP on /webhook/*

	EnvAssistantProvider     string        // Name of the assistant provider ("openai", "gemini", "deepseek", "openrouter")
	EnvOpenAIKey             string        // API Key for OpenAI
	EnvOpenAIModel           string        // Model override for assistant runs (e.g., gpt-4o-mini)
	EnvAssistantID           string        // Hosted assistant id (asst_...)
	EnvGenerativeApiKey      string        // API Key for chat-completion providers
	EnvGenerativeModel       string        // Model name for chat-completion providers
	EnvAssistantTimeout      time.Duration // Timeout of a single assistant call
	EnvAssistantRetries      int           // Extra attempts after a failed assistant call
	EnvAssistantPollInterval time.Duration // Run status polling interval
	EnvDialogStoragePath     string        // File with locally kept threads
	EnvDialogHistorySize     int           // Max messages kept per local thread

	EnvSheetID         string // Google spreadsheet id
	EnvSheetName       string // Sheet (tab) name for bookings
	EnvCredentialsPath string // Service account credentials file

	EnvSessionStore  string        // "memory" or "redis"
	EnvRedisAddr     string        // Redis address for the session store
	EnvRedisPassword string        // Redis password
	EnvRedisDB       int           // Redis database number
	EnvSessionTTL    time.Duration // Session expiry in Redis, 0 disables expiry

	EnvOutboxPath          string        // Badger directory for bookings awaiting a retry, empty disables
	EnvOutboxRetryInterval time.Duration // How often the outbox is drained
}

// ErrMissingEnv is wrapped by Validate for every required variable that is not set.
var ErrMissingEnv = errors.New("missing required environment variable")

// NewConfig initializes a new Config instance by loading environment variables from bot.env.
// A missing bot.env is not an error: the process environment is used as is.
// It returns an error if a value is present but cannot be parsed or a required one is missing.
func NewConfig() (*Config, error) {
	if err := godotenv.Load("bot.env"); err != nil {
		logrus.WithError(err).Info("bot.env not loaded, using process environment")
	}
	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config with defaults from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	config := &Config{}
	config.EnvLogsLevel = p.str("LOG_LEVEL", "info")
	config.EnvLogFileName = p.str("LOG_FILE_NAME", "hifibot.log")
	config.EnvHTTPAddr = p.str("HTTP_ADDR", ":"+p.str("FLASK_PORT", "5000"))

	config.EnvBotToken = p.str("TELEGRAM_TOKEN", "")
	config.EnvAdminChatID = p.integer64("TELEGRAM_ADMIN_CHAT_ID", 0)
	config.EnvUseWebhook = p.flag("USE_WEBHOOK", false)

	config.EnvCORSOrigins = p.list("CORS_ORIGINS")
	for _, key := range []string{"TILDA_URL", "APP_URL"} {
		if origin := p.str(key, ""); origin != "" {
			config.EnvCORSOrigins = append(config.EnvCORSOrigins, origin)
		}
	}
	config.EnvWebhookRatePerMin = p.integer("WEBHOOK_RATE_PER_MIN", 60)

	config.EnvAssistantProvider = strings.ToLower(p.str("ASSISTANT_PROVIDER", "openai"))
	config.EnvOpenAIKey = p.str("OPENAI_API_KEY", "")
	config.EnvOpenAIModel = p.str("OPENAI_MODEL", "gpt-4o-mini")
	config.EnvAssistantID = p.str("OPENAI_ASSISTANT_ID", "")
	config.EnvGenerativeApiKey = p.str("GENERATIVE_API_KEY", "")
	config.EnvGenerativeModel = p.str("GENERATIVE_MODEL", "")
	config.EnvAssistantTimeout = p.duration("ASSISTANT_TIMEOUT", 60*time.Second)
	config.EnvAssistantRetries = p.integer("ASSISTANT_RETRIES", 1)
	config.EnvAssistantPollInterval = p.duration("ASSISTANT_POLL_INTERVAL", time.Second)
	config.EnvDialogStoragePath = p.str("DIALOG_STORAGE_PATH", "dialogs.json")
	config.EnvDialogHistorySize = p.integer("DIALOG_HISTORY_SIZE", 40)

	config.EnvSheetID = p.str("GOOGLE_SHEET_ID", "")
	config.EnvSheetName = p.str("GOOGLE_SHEET_NAME", "Заявки")
	config.EnvCredentialsPath = p.str("GOOGLE_CREDENTIALS_PATH", "credentials.json")

	config.EnvSessionStore = strings.ToLower(p.str("SESSION_STORE", "memory"))
	config.EnvRedisAddr = p.str("REDIS_ADDR", "localhost:6379")
	config.EnvRedisPassword = p.str("REDIS_PASSWORD", "")
	config.EnvRedisDB = p.integer("REDIS_DB", 0)
	config.EnvSessionTTL = p.duration("SESSION_TTL", 24*time.Hour)

	config.EnvOutboxPath = p.str("OUTBOX_PATH", "")
	config.EnvOutboxRetryInterval = p.duration("OUTBOX_RETRY_INTERVAL", 5*time.Minute)

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return config, nil
}

// Validate reports every required variable that is missing for the chosen providers.
func (c *Config) Validate() error {
	var errs []error
	require := func(name, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingEnv, name))
		}
	}
	require("TELEGRAM_TOKEN", c.EnvBotToken)
	require("GOOGLE_SHEET_ID", c.EnvSheetID)
	if c.EnvAdminChatID == 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingEnv, "TELEGRAM_ADMIN_CHAT_ID"))
	}
	switch c.EnvAssistantProvider {
	case "openai":
		require("OPENAI_API_KEY", c.EnvOpenAIKey)
		require("OPENAI_ASSISTANT_ID", c.EnvAssistantID)
	default:
		require("GENERATIVE_API_KEY", c.EnvGenerativeApiKey)
		require("GENERATIVE_MODEL", c.EnvGenerativeModel)
	}
	switch c.EnvSessionStore {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported SESSION_STORE: %s (expected 'memory' or 'redis')", c.EnvSessionStore))
	}
	return errors.Join(errs...)
}

// parser collects parse errors so that all bad values are reported at once
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) list(key string) []string {
	var out []string
	for _, item := range strings.Split(p.getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) integer64(key string, def int64) int64 {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) flag(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
		return def
	}
	return d
}

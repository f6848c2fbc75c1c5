package generative

import (
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/api"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/config"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/constant"
	botServ "github.com/DenisKhanov/HiFiBot/internal/hifi_bot/service"
	"sort"
	"strings"
)

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.3
)

// generativeCreator defines a function to create GenerativeModel
type generativeCreator func(apiKey, modelName string) (botServ.GenerativeModel, error)

// generativeRegistry stores registered chat-completion implementations
var generativeRegistry = map[string]generativeCreator{
	"gemini": func(apiKey, modelName string) (botServ.GenerativeModel, error) {
		return api.NewGeminiAPI(apiKey, modelName, defaultMaxTokens, defaultTemperature)
	},
	"deepseek": func(apiKey, modelName string) (botServ.GenerativeModel, error) {
		return api.NewDeepSeekAPI(apiKey, modelName, defaultMaxTokens, defaultTemperature)
	},
	"openrouter": func(apiKey, modelName string) (botServ.GenerativeModel, error) {
		return api.NewOpenRouterAPI(apiKey, modelName)
	},
}

// ModelFactory creates a GenerativeModel implementation by provider name.
func ModelFactory(generativeName, apiKey, modelName string) (botServ.GenerativeModel, error) {
	creator, exists := generativeRegistry[generativeName]
	if !exists {
		return nil, fmt.Errorf("unsupported ASSISTANT_PROVIDER: %s (expected openai or %s)",
			generativeName, strings.Join(chatProviders(), ", "))
	}
	return creator(apiKey, modelName)
}

// AssistantFactory builds the provider named by cfg.EnvAssistantProvider. Chat-completion
// providers keep their threads in dialogs.
func AssistantFactory(cfg *config.Config, dialogs DialogStore) (botServ.AssistantProvider, error) {
	if cfg.EnvAssistantProvider == "openai" {
		return api.NewOpenAIAssistantAPI(cfg.EnvOpenAIKey, cfg.EnvAssistantID, cfg.EnvOpenAIModel, cfg.EnvAssistantPollInterval)
	}
	model, err := ModelFactory(cfg.EnvAssistantProvider, cfg.EnvGenerativeApiKey, cfg.EnvGenerativeModel)
	if err != nil {
		return nil, err
	}
	return NewChatAssistant(model, dialogs, constant.AssistantInstructions), nil
}

func chatProviders() []string {
	names := make([]string, 0, len(generativeRegistry))
	for name := range generativeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

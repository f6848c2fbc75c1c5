package config

import (
	"errors"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.EnvHTTPAddr != ":5000" {
		t.Errorf("EnvHTTPAddr: got %q, want %q", cfg.EnvHTTPAddr, ":5000")
	}
	if cfg.EnvOpenAIModel != "gpt-4o-mini" {
		t.Errorf("EnvOpenAIModel: got %q", cfg.EnvOpenAIModel)
	}
	if cfg.EnvSheetName != "Заявки" {
		t.Errorf("EnvSheetName: got %q", cfg.EnvSheetName)
	}
	if cfg.EnvAssistantProvider != "openai" || cfg.EnvSessionStore != "memory" {
		t.Errorf("provider/store: got %q/%q", cfg.EnvAssistantProvider, cfg.EnvSessionStore)
	}
	if cfg.EnvAssistantTimeout != 60*time.Second || cfg.EnvAssistantRetries != 1 {
		t.Errorf("assistant hardening: got %v/%d", cfg.EnvAssistantTimeout, cfg.EnvAssistantRetries)
	}
	if cfg.EnvUseWebhook {
		t.Error("EnvUseWebhook: got true, want false")
	}
}

func TestFromEnvParsesValues(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"FLASK_PORT":             "8081",
		"TELEGRAM_ADMIN_CHAT_ID": "-100123",
		"USE_WEBHOOK":            "true",
		"CORS_ORIGINS":           "https://a.example, https://b.example",
		"TILDA_URL":              "https://shop.tilda.ws",
		"ASSISTANT_TIMEOUT":      "15s",
		"ASSISTANT_PROVIDER":     "DeepSeek",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.EnvHTTPAddr != ":8081" {
		t.Errorf("EnvHTTPAddr: got %q", cfg.EnvHTTPAddr)
	}
	if cfg.EnvAdminChatID != -100123 {
		t.Errorf("EnvAdminChatID: got %d", cfg.EnvAdminChatID)
	}
	if !cfg.EnvUseWebhook {
		t.Error("EnvUseWebhook: got false")
	}
	want := []string{"https://a.example", "https://b.example", "https://shop.tilda.ws"}
	if len(cfg.EnvCORSOrigins) != len(want) {
		t.Fatalf("EnvCORSOrigins: got %v, want %v", cfg.EnvCORSOrigins, want)
	}
	for i := range want {
		if cfg.EnvCORSOrigins[i] != want[i] {
			t.Errorf("EnvCORSOrigins[%d]: got %q, want %q", i, cfg.EnvCORSOrigins[i], want[i])
		}
	}
	if cfg.EnvAssistantTimeout != 15*time.Second {
		t.Errorf("EnvAssistantTimeout: got %v", cfg.EnvAssistantTimeout)
	}
	if cfg.EnvAssistantProvider != "deepseek" {
		t.Errorf("EnvAssistantProvider: got %q", cfg.EnvAssistantProvider)
	}
}

func TestFromEnvReportsBadValues(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		"TELEGRAM_ADMIN_CHAT_ID": "staff",
		"ASSISTANT_TIMEOUT":      "soon",
	}))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateListsMissing(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	err = cfg.Validate()
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("Validate: got %v, want ErrMissingEnv", err)
	}
}

func TestValidateGenerativeProvider(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TELEGRAM_TOKEN":         "token",
		"TELEGRAM_ADMIN_CHAT_ID": "42",
		"GOOGLE_SHEET_ID":        "sheet",
		"ASSISTANT_PROVIDER":     "gemini",
		"GENERATIVE_API_KEY":     "key",
		"GENERATIVE_MODEL":       "gemini-2.0-flash",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if err = cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := &Config{
		EnvBotToken:          "t",
		EnvAdminChatID:       1,
		EnvSheetID:           "s",
		EnvAssistantProvider: "openai",
		EnvOpenAIKey:         "k",
		EnvAssistantID:       "a",
		EnvSessionStore:      "etcd",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown session store")
	}
}

package config

import (
	"time"
)

const (
	// APIKeyVar names the provider credential.  It is looked up on every
	// request and never copied into Config.
	APIKeyVar = "GEMINI_API_KEY"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultModel   = "gemini-2.0-flash"
)

// Config holds the static server settings.  Values come from the process
// environment first and the .env file second.
type Config struct {
	Port            string
	ProviderBaseURL string
	ProviderModel   string
	ProviderTimeout time.Duration
	DatabaseURL     string
	NotifyChannel   string
	LogFile         string
	LogLevel        string
	TelemetryDir    string
}

// Load builds a Config from env.  Unparseable durations fall back to the
// default rather than failing startup.
func Load(env *Env) *Config {
	return &Config{
		Port:            env.GetDefault("PORT", "8080"),
		ProviderBaseURL: env.GetDefault("PROVIDER_BASE_URL", defaultBaseURL),
		ProviderModel:   env.GetDefault("PROVIDER_MODEL", defaultModel),
		ProviderTimeout: getDuration(env, "PROVIDER_TIMEOUT", 30*time.Second),
		DatabaseURL:     env.Get("DATABASE_URL"),
		NotifyChannel:   env.GetDefault("POSTGRES_NOTIFY_CHANNEL", "analysis_recorded"),
		LogFile:         env.Get("LOG_FILE"),
		LogLevel:        env.GetDefault("LOG_LEVEL", "info"),
		TelemetryDir:    env.Get("TELEMETRY_DIR"),
	}
}

func getDuration(env *Env, key string, defaultValue time.Duration) time.Duration {
	v := env.Get(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice Q&A gateway.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// Route paths for the two gateway operations. The legacy aliases
	// /api/openai-proxy and /openai-tts are mounted alongside these.
	AnswerPath string
	SpeechPath string

	BrainProvider  string
	SpeechProvider string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIChatModel   string
	OpenAITemperature float64
	OpenAIMaxTokens   int
	OpenAITTSModel    string
	OpenAITTSVoice    string
	OpenAITTSFormat   string

	UpstreamTimeout time.Duration

	// Command line for the in-process fallback voice, split on whitespace.
	// Text is written to stdin, audio bytes are read from stdout.
	LocalSpeechCommand string
	LocalSpeechFormat  string

	MaxAnswerChars int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "dimmi"),
		AllowAnyOrigin:   false,
		AnswerPath:       envOrDefault("APP_ANSWER_PATH", "/api/ask"),
		SpeechPath:       envOrDefault("APP_SPEECH_PATH", "/api/tts"),
		BrainProvider:    envOrDefault("BRAIN_PROVIDER", "auto"),
		SpeechProvider:   envOrDefault("SPEECH_PROVIDER", "auto"),
		OpenAIAPIKey:     trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIChatModel:  envOrDefault("OPENAI_CHAT_MODEL", "gpt-3.5-turbo"),
		// Short answers, not documents: max_tokens keeps replies speakable.
		OpenAITemperature:  0.7,
		OpenAIMaxTokens:    150,
		OpenAITTSModel:     envOrDefault("OPENAI_TTS_MODEL", "tts-1"),
		OpenAITTSVoice:     envOrDefault("OPENAI_TTS_VOICE", "nova"),
		OpenAITTSFormat:    envOrDefault("OPENAI_TTS_FORMAT", "mp3"),
		UpstreamTimeout:    30 * time.Second,
		LocalSpeechCommand: trimmedEnv("LOCAL_SPEECH_COMMAND"),
		LocalSpeechFormat:  envOrDefault("LOCAL_SPEECH_FORMAT", "wav"),
		MaxAnswerChars:     0,
		ShutdownTimeout:    15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.UpstreamTimeout, err = durationFromEnv("UPSTREAM_TIMEOUT", cfg.UpstreamTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.OpenAITemperature, err = floatFromEnv("OPENAI_CHAT_TEMPERATURE", cfg.OpenAITemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.OpenAIMaxTokens, err = intFromEnv("OPENAI_CHAT_MAX_TOKENS", cfg.OpenAIMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxAnswerChars, err = intFromEnv("APP_MAX_ANSWER_CHARS", cfg.MaxAnswerChars)
	if err != nil {
		return Config{}, err
	}

	if !strings.HasPrefix(cfg.AnswerPath, "/") {
		return Config{}, fmt.Errorf("APP_ANSWER_PATH must start with /")
	}
	if !strings.HasPrefix(cfg.SpeechPath, "/") {
		return Config{}, fmt.Errorf("APP_SPEECH_PATH must start with /")
	}
	if cfg.AnswerPath == cfg.SpeechPath {
		return Config{}, fmt.Errorf("APP_ANSWER_PATH and APP_SPEECH_PATH must differ")
	}
	if cfg.UpstreamTimeout < time.Second {
		return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT must be at least 1s")
	}
	if cfg.OpenAITemperature < 0 || cfg.OpenAITemperature > 2 {
		return Config{}, fmt.Errorf("OPENAI_CHAT_TEMPERATURE must be in [0, 2]")
	}
	if cfg.OpenAIMaxTokens <= 0 {
		return Config{}, fmt.Errorf("OPENAI_CHAT_MAX_TOKENS must be positive")
	}
	if cfg.MaxAnswerChars < 0 {
		return Config{}, fmt.Errorf("APP_MAX_ANSWER_CHARS must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

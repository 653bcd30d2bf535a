package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/asperduti/dimmi/internal/brain"
	"github.com/asperduti/dimmi/internal/config"
	"github.com/asperduti/dimmi/internal/httpapi"
	"github.com/asperduti/dimmi/internal/observability"
	"github.com/asperduti/dimmi/internal/speech"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	answers := buildAnswerProvider(cfg)
	voice := buildSynthesizer(cfg, metrics)

	api := httpapi.New(cfg, answers, voice, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

func buildAnswerProvider(cfg config.Config) brain.Provider {
	var provider brain.Provider

	mode := strings.ToLower(strings.TrimSpace(cfg.BrainProvider))
	switch mode {
	case "mock":
		provider = brain.NewMockProvider()
		log.Printf("answer provider: mock")
	case "", "auto", "openai":
		// A missing API key is not a boot failure: the provider reports it
		// on every request instead, so the service still serves its UI and
		// health endpoints.
		provider = brain.NewOpenAIProvider(brain.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIChatModel,
			Temperature: cfg.OpenAITemperature,
			MaxTokens:   cfg.OpenAIMaxTokens,
			Timeout:     cfg.UpstreamTimeout,
		})
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			log.Printf("answer provider: openai (no API key configured, requests will fail)")
		} else {
			log.Printf("answer provider: openai")
		}
	default:
		log.Fatalf("invalid BRAIN_PROVIDER: %q (expected auto|openai|mock)", cfg.BrainProvider)
	}

	return brain.LimitAnswerLength(provider, cfg.MaxAnswerChars)
}

func buildSynthesizer(cfg config.Config, metrics *observability.Metrics) speech.Synthesizer {
	mode := strings.ToLower(strings.TrimSpace(cfg.SpeechProvider))
	switch mode {
	case "mock":
		log.Printf("speech provider: mock")
		return speech.NewMockSynthesizer()
	case "", "auto", "openai":
	default:
		log.Fatalf("invalid SPEECH_PROVIDER: %q (expected auto|openai|mock)", cfg.SpeechProvider)
	}

	primary := speech.NewOpenAISynthesizer(speech.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAITTSModel,
		Voice:   cfg.OpenAITTSVoice,
		Format:  cfg.OpenAITTSFormat,
		Timeout: cfg.UpstreamTimeout,
	})

	if strings.TrimSpace(cfg.LocalSpeechCommand) == "" {
		log.Printf("speech provider: openai (no local fallback configured)")
		return primary
	}

	fallback, err := speech.NewLocalSynthesizer(speech.LocalConfig{
		Command: cfg.LocalSpeechCommand,
		Format:  cfg.LocalSpeechFormat,
	})
	if err != nil {
		log.Printf("local fallback voice unavailable: %v", err)
		return primary
	}

	log.Printf("speech provider: openai with local fallback (%s)", cfg.LocalSpeechCommand)
	return speech.NewFailoverSynthesizer(primary, fallback, func() {
		metrics.FallbackVoiceUses.Inc()
		log.Printf("fallback voice engaged")
	})
}

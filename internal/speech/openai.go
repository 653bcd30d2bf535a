package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asperduti/dimmi/internal/gateway"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Format  string
	Timeout time.Duration
}

// OpenAISynthesizer renders speech through the audio/speech API with a
// fixed voice profile and model selection.
type OpenAISynthesizer struct {
	cfg    OpenAIConfig
	client *http.Client
}

func NewOpenAISynthesizer(cfg OpenAIConfig) *OpenAISynthesizer {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "tts-1"
	}
	if strings.TrimSpace(cfg.Voice) == "" {
		cfg.Voice = "nova"
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = "mp3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAISynthesizer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return Audio{}, gateway.ErrMissingCredential
	}

	payload := map[string]any{
		"model":           s.cfg.Model,
		"input":           text,
		"voice":           s.cfg.Voice,
		"response_format": s.cfg.Format,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Audio{}, fmt.Errorf("marshal speech request: %w", err)
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/v1/audio/speech"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	res, err := s.client.Do(req)
	if err != nil {
		return Audio{}, &gateway.UpstreamError{Provider: "openai", Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		msg := strings.TrimSpace(string(detail))
		if msg == "" {
			msg = res.Status
		}
		return Audio{}, &gateway.UpstreamError{Provider: "openai", Status: res.StatusCode, Message: msg}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Audio{}, &gateway.UpstreamError{Provider: "openai", Message: "read audio body: " + err.Error()}
	}
	// No transcoding and no caching: the vendor payload goes back as-is.
	return Audio{Data: data, Format: s.cfg.Format}, nil
}

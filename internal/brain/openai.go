package brain

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
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIProvider answers questions through the chat-completions API.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Answer(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return "", gateway.ErrMissingCredential
	}

	payload := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: instructionFor(req.Tone, req.AudiencePrompt)},
			{Role: "user", Content: req.Question},
		},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return "", &gateway.UpstreamError{Provider: "openai", Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &gateway.UpstreamError{
			Provider: "openai",
			Status:   res.StatusCode,
			Message:  upstreamErrorMessage(res),
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", &gateway.UpstreamError{Provider: "openai", Message: "invalid chat response: " + err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &gateway.EmptyResultError{Provider: "openai"}
	}
	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if answer == "" {
		return "", &gateway.EmptyResultError{Provider: "openai"}
	}
	return answer, nil
}

// instructionFor builds the system directive: answer directly, in persona,
// with no conversational preamble.
func instructionFor(tone, audiencePrompt string) string {
	return fmt.Sprintf(
		"You are answering this question like a %s %s. Keep the answer simple and fun. "+
			"Your response should be just the answer, without any preamble like "+
			"\"Okay, here's the answer...\" or any conversational fluff.",
		tone, audiencePrompt,
	)
}

func upstreamErrorMessage(res *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return strings.TrimSpace(parsed.Error.Message)
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return res.Status
}

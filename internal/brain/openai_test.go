package brain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/asperduti/dimmi/internal/gateway"
)

func TestAnswerTrimsWhitespaceAndKeepsContent(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode upstream body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hello there!  "}}]}`))
	}))
	defer ts.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: ts.URL, Model: "gpt-3.5-turbo", Temperature: 0.7, MaxTokens: 150})
	answer, err := p.Answer(context.Background(), Request{Question: "Why is the sky blue?", Tone: "playful", AudiencePrompt: "5-year-old"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "Hello there!" {
		t.Fatalf("answer = %q, want %q", answer, "Hello there!")
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q, want bearer credential", gotAuth)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Fatalf("unexpected message layout: %+v", gotBody.Messages)
	}
	if gotBody.Messages[1].Content != "Why is the sky blue?" {
		t.Fatalf("user message = %q, want raw question", gotBody.Messages[1].Content)
	}
	if !strings.Contains(gotBody.Messages[0].Content, "playful 5-year-old") {
		t.Fatalf("system directive %q missing persona", gotBody.Messages[0].Content)
	}
	if gotBody.MaxTokens != 150 {
		t.Fatalf("max_tokens = %d, want 150", gotBody.MaxTokens)
	}
}

func TestAnswerMapsUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer ts.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: ts.URL})
	_, err := p.Answer(context.Background(), Request{Question: "q", Tone: "serious", AudiencePrompt: "expert"})

	var ue *gateway.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *gateway.UpstreamError", err)
	}
	if ue.Status != http.StatusTooManyRequests {
		t.Fatalf("upstream status = %d, want 429", ue.Status)
	}
	if !strings.Contains(ue.Message, "Rate limit reached") {
		t.Fatalf("upstream message %q missing vendor detail", ue.Message)
	}
}

func TestAnswerEmptyContentIsEmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer ts.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: ts.URL})
	_, err := p.Answer(context.Background(), Request{Question: "q", Tone: "serious", AudiencePrompt: "expert"})

	var ee *gateway.EmptyResultError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want *gateway.EmptyResultError", err)
	}
}

func TestAnswerNoChoicesIsEmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: ts.URL})
	_, err := p.Answer(context.Background(), Request{Question: "q", Tone: "sarcastic", AudiencePrompt: "teenager"})

	var ee *gateway.EmptyResultError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want *gateway.EmptyResultError", err)
	}
}

func TestAnswerWithoutCredential(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer ts.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: ts.URL})
	_, err := p.Answer(context.Background(), Request{Question: "q", Tone: "playful", AudiencePrompt: "expert"})
	if !errors.Is(err, gateway.ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
	if called {
		t.Fatalf("upstream was called despite missing credential")
	}
}

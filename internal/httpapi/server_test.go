package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/asperduti/dimmi/internal/brain"
	"github.com/asperduti/dimmi/internal/config"
	"github.com/asperduti/dimmi/internal/gateway"
	"github.com/asperduti/dimmi/internal/speech"
)

type stubBrain struct {
	answer string
	err    error
	calls  int
}

func (s *stubBrain) Answer(_ context.Context, _ brain.Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type stubVoice struct {
	audio speech.Audio
	err   error
	calls int
}

func (s *stubVoice) Synthesize(_ context.Context, _ string) (speech.Audio, error) {
	s.calls++
	if s.err != nil {
		return speech.Audio{}, s.err
	}
	return s.audio, nil
}

func newTestServer(t *testing.T, answers brain.Provider, voice speech.Synthesizer) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		AnswerPath: "/api/ask",
		SpeechPath: "/api/tts",
	}
	srv := New(cfg, answers, voice, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return res
}

func TestAnswerRoute(t *testing.T) {
	answers := &stubBrain{answer: "Because of Rayleigh scattering."}
	ts := newTestServer(t, answers, &stubVoice{})

	for _, path := range []string{"/api/ask", "/api/openai-proxy"} {
		res := postJSON(t, ts.URL+path, map[string]string{
			"question":       "Why is the sky blue?",
			"tone":           "playful",
			"audiencePrompt": "teenager",
		})
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
		var got map[string]string
		if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if got["answer"] != "Because of Rayleigh scattering." {
			t.Fatalf("answer = %q", got["answer"])
		}
	}
}

func TestAnswerRouteValidation(t *testing.T) {
	answers := &stubBrain{answer: "unused"}
	ts := newTestServer(t, answers, &stubVoice{})

	res := postJSON(t, ts.URL+"/api/ask", map[string]string{
		"question": "hello",
		"tone":     "   ",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	var got map[string]string
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(got["error"], "missing required parameters: tone, audiencePrompt") {
		t.Fatalf("error = %q", got["error"])
	}
	if answers.calls != 0 {
		t.Fatal("provider called despite validation failure")
	}
}

func TestAnswerRoutePropagatesUpstreamStatus(t *testing.T) {
	answers := &stubBrain{err: &gateway.UpstreamError{Provider: "openai", Status: 429, Message: "rate limited"}}
	ts := newTestServer(t, answers, &stubVoice{})

	res := postJSON(t, ts.URL+"/api/ask", map[string]string{
		"question":       "q",
		"tone":           "serious",
		"audiencePrompt": "expert",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusTooManyRequests)
	}
	var got map[string]string
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(got["error"], "rate limited") {
		t.Fatalf("vendor detail lost: %q", got["error"])
	}
}

func TestAnswerRouteMissingCredentialIs500(t *testing.T) {
	answers := &stubBrain{err: gateway.ErrMissingCredential}
	ts := newTestServer(t, answers, &stubVoice{})

	res := postJSON(t, ts.URL+"/api/ask", map[string]string{
		"question":       "q",
		"tone":           "playful",
		"audiencePrompt": "teenager",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
}

func TestOnlyPOSTAllowed(t *testing.T) {
	ts := newTestServer(t, &stubBrain{}, &stubVoice{})

	for _, path := range []string{"/api/ask", "/api/openai-proxy", "/api/tts", "/openai-tts"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			req, _ := http.NewRequest(method, ts.URL+path, nil)
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s %s error = %v", method, path, err)
			}
			body, _ := io.ReadAll(res.Body)
			res.Body.Close()
			if res.StatusCode != http.StatusMethodNotAllowed {
				t.Fatalf("%s %s status = %d, want %d", method, path, res.StatusCode, http.StatusMethodNotAllowed)
			}
			var got map[string]string
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode %s %s response: %v", method, path, err)
			}
			if got["message"] != "Only POST requests allowed" {
				t.Fatalf("%s %s message = %q", method, path, got["message"])
			}
		}
	}
}

func TestSpeechRoute(t *testing.T) {
	voice := &stubVoice{audio: speech.Audio{Data: []byte("fake-mp3-bytes"), Format: "mp3"}}
	ts := newTestServer(t, &stubBrain{}, voice)

	for _, path := range []string{"/api/tts", "/openai-tts"} {
		res := postJSON(t, ts.URL+path, map[string]string{"text": "hello world"})
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
		if ct := res.Header.Get("Content-Type"); ct != "audio/mpeg" {
			t.Fatalf("%s content type = %q", path, ct)
		}
		if res.Header.Get("Content-Length") != "14" {
			t.Fatalf("%s content length = %q", path, res.Header.Get("Content-Length"))
		}
		if !bytes.Equal(body, []byte("fake-mp3-bytes")) {
			t.Fatalf("%s body = %q, want vendor bytes verbatim", path, body)
		}
	}
}

func TestSpeechRouteValidation(t *testing.T) {
	voice := &stubVoice{}
	ts := newTestServer(t, &stubBrain{}, voice)

	res := postJSON(t, ts.URL+"/api/tts", map[string]string{"text": ""})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if voice.calls != 0 {
		t.Fatal("synthesizer called despite validation failure")
	}
}

func TestHealthAndPerfRoutes(t *testing.T) {
	ts := newTestServer(t, &stubBrain{}, &stubVoice{})

	for _, path := range []string{"/healthz", "/readyz", "/v1/perf/latency"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}

func TestUIRedirect(t *testing.T) {
	ts := newTestServer(t, &stubBrain{}, &stubVoice{})

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	res, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusTemporaryRedirect)
	}
	if loc := res.Header.Get("Location"); loc != "/ui/" {
		t.Fatalf("location = %q, want /ui/", loc)
	}
}

package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/asperduti/dimmi/internal/brain"
	"github.com/asperduti/dimmi/internal/gateway"
	"github.com/asperduti/dimmi/internal/speech"
)

type askRequest struct {
	Question       string `json:"question"`
	Tone           string `json:"tone"`
	AudiencePrompt string `json:"audiencePrompt"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type ttsRequest struct {
	Text string `json:"text"`
}

// handleAnswer proxies a question to the answer provider. The credential
// stays server-side; clients never see the upstream key or endpoint.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.countGateway("ask", "bad_request")
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var missing []string
	if strings.TrimSpace(req.Question) == "" {
		missing = append(missing, "question")
	}
	if strings.TrimSpace(req.Tone) == "" {
		missing = append(missing, "tone")
	}
	if strings.TrimSpace(req.AudiencePrompt) == "" {
		missing = append(missing, "audiencePrompt")
	}
	if len(missing) > 0 {
		err := gateway.NewValidationError(missing...)
		s.countGateway("ask", "bad_request")
		respondError(w, gateway.HTTPStatus(err), "missing_parameters", err.Error())
		return
	}

	started := time.Now()
	answer, err := s.answers.Answer(r.Context(), brain.Request{
		Question:       req.Question,
		Tone:           req.Tone,
		AudiencePrompt: req.AudiencePrompt,
	})
	s.observeUpstream("ask", time.Since(started))

	if err != nil {
		s.countGateway("ask", "upstream_error")
		respondError(w, gateway.HTTPStatus(err), "answer_failed", err.Error())
		return
	}

	s.countGateway("ask", "ok")
	respondJSON(w, http.StatusOK, askResponse{Answer: answer})
}

// handleSpeech synthesizes the posted text and returns the audio bytes
// verbatim, no transcoding and no caching.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.countGateway("tts", "bad_request")
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		err := gateway.NewValidationError("text")
		s.countGateway("tts", "bad_request")
		respondError(w, gateway.HTTPStatus(err), "missing_parameters", err.Error())
		return
	}

	started := time.Now()
	audio, err := s.voice.Synthesize(r.Context(), req.Text)
	s.observeUpstream("tts", time.Since(started))

	if err != nil {
		s.countGateway("tts", "upstream_error")
		respondError(w, gateway.HTTPStatus(err), "synthesis_failed", err.Error())
		return
	}

	s.countGateway("tts", "ok")
	w.Header().Set("Content-Type", speech.MIMEType(audio.Format))
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}

func (s *Server) countGateway(op, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.GatewayRequests.WithLabelValues(op, outcome).Inc()
}

func (s *Server) observeUpstream(op string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveUpstreamLatency(op, d)
}

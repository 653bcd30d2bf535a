package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/asperduti/dimmi/internal/brain"
	"github.com/asperduti/dimmi/internal/config"
	"github.com/asperduti/dimmi/internal/observability"
	"github.com/asperduti/dimmi/internal/protocol"
	"github.com/asperduti/dimmi/internal/speech"
	"github.com/asperduti/dimmi/internal/turn"
)

type Server struct {
	cfg      config.Config
	answers  brain.Provider
	voice    speech.Synthesizer
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
	static   http.Handler
}

func New(cfg config.Config, answers brain.Provider, voice speech.Synthesizer, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		answers: answers,
		voice:   voice,
		metrics: metrics,
		static:  newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so another website cannot drive the user's mic
				// session if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	// The answer and speech routes accept POST only; every other verb gets
	// the same JSON refusal. Legacy aliases kept for older clients.
	s.mountPostOnly(r, s.cfg.AnswerPath, s.handleAnswer)
	if s.cfg.AnswerPath != "/api/openai-proxy" {
		s.mountPostOnly(r, "/api/openai-proxy", s.handleAnswer)
	}
	s.mountPostOnly(r, s.cfg.SpeechPath, s.handleSpeech)
	if s.cfg.SpeechPath != "/openai-tts" {
		s.mountPostOnly(r, "/openai-tts", s.handleSpeech)
	}

	r.Get("/v1/turn/ws", s.handleTurnWS)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) mountPostOnly(r chi.Router, path string, h http.HandlerFunc) {
	r.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSON(w, http.StatusMethodNotAllowed, map[string]string{
				"message": "Only POST requests allowed",
			})
			return
		}
		h(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotTurnStages())
}

// handleTurnWS runs one interaction state machine per websocket connection.
// Reads and machine outputs stay on separate goroutines so a slow client
// cannot stall the turn loop.
func (s *Server) handleTurnWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.ActiveMachines.Inc()
		defer s.metrics.ActiveMachines.Dec()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	machine := turn.NewMachine(s.answers, s.voice, s.metrics)

	inbound := make(chan turn.Input, 64)
	machineOut := make(chan turn.Output, 64)
	outbound := make(chan any, 64)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		machine.Run(ctx, inbound, machineOut)
	}()

	bridgeDone := make(chan struct{})
	go func() {
		defer close(bridgeDone)
		for {
			select {
			case <-ctx.Done():
				return
			case out, ok := <-machineOut:
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case outbound <- serverMessage(out):
				}
			}
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.countWSMessage("outbound", t)
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:    protocol.TypeErrorEvent,
				Code:    "invalid_client_message",
				Message: err.Error(),
			}
			select {
			case outbound <- errEvent:
			default:
				// Keep websocket writes single-threaded; drop if the
				// outbound queue is saturated.
			}
			continue
		}

		if t, ok := messageTypeOf(parsed); ok {
			s.countWSMessage("inbound", t)
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- machineInput(parsed):
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-bridgeDone
	<-writerDone
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func (s *Server) countWSMessage(direction string, t protocol.MessageType) {
	if s.metrics == nil {
		return
	}
	s.metrics.WSMessages.WithLabelValues(direction, string(t)).Inc()
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.CaptureStart:
		return m.Type, true
	case protocol.CaptureResult:
		return m.Type, true
	case protocol.CaptureError:
		return m.Type, true
	case protocol.PlaybackDone:
		return m.Type, true
	case protocol.PlaybackError:
		return m.Type, true
	case protocol.Swipe:
		return m.Type, true
	case protocol.StateEvent:
		return m.Type, true
	case protocol.AnswerText:
		return m.Type, true
	case protocol.AnswerAudio:
		return m.Type, true
	case protocol.PlaybackCancel:
		return m.Type, true
	case protocol.PresentationEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}

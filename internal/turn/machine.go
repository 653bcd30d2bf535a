package turn

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asperduti/dimmi/internal/brain"
	"github.com/asperduti/dimmi/internal/observability"
	"github.com/asperduti/dimmi/internal/reliability"
	"github.com/asperduti/dimmi/internal/speech"
)

// State is the conversation lifecycle position. The capture control is
// re-enabled for a new turn only when entering Idle; Speaking additionally
// accepts activation with an explicit stop-then-start of the playing audio.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
	StateFailed    State = "failed"
)

type trigger string

const (
	triggerActivateCapture trigger = "activate_capture"
	triggerCaptureResult   trigger = "capture_result"
	triggerCaptureError    trigger = "capture_error"
	triggerAnswerReceived  trigger = "answer_received"
	triggerAnswerFailed    trigger = "answer_failed"
	triggerAudioReady      trigger = "audio_ready"
	triggerSynthFailed     trigger = "synthesis_failed"
	triggerPlaybackDone    trigger = "playback_done"
	triggerPlaybackError   trigger = "playback_error"
)

// transitions is the single table governing ordering and re-entrancy.
// A trigger absent from the current state's row is rejected outright.
var transitions = map[State]map[trigger]State{
	StateIdle: {
		triggerActivateCapture: StateListening,
	},
	StateListening: {
		triggerCaptureResult: StateThinking,
		triggerCaptureError:  StateIdle,
	},
	StateThinking: {
		triggerAnswerReceived: StateSpeaking,
		triggerAnswerFailed:   StateIdle,
	},
	StateSpeaking: {
		triggerAudioReady:      StateSpeaking,
		triggerSynthFailed:     StateIdle,
		triggerPlaybackDone:    StateIdle,
		triggerPlaybackError:   StateIdle,
		triggerActivateCapture: StateListening,
	},
}

// Turn is one voice interaction. It exists from recognized transcript to
// return-to-idle and is replaced by the next activation.
type Turn struct {
	ID             string
	Transcript     string
	Tone           string
	AudiencePrompt string
	AnswerText     string
	Status         State
	StartedAt      time.Time
}

// Input is a client-originated event driving the machine.
type Input interface{ isInput() }

type ActivateCapture struct{}

type CaptureResult struct{ Transcript string }

// CaptureError reasons follow the browser speech API: "no-speech",
// "audio-capture", "not-allowed", anything else is reported generically.
type CaptureError struct{ Reason string }

type PlaybackDone struct{}

type PlaybackError struct{ Detail string }

type SwipeGesture struct{ Swipe Swipe }

func (ActivateCapture) isInput() {}
func (CaptureResult) isInput()   {}
func (CaptureError) isInput()    {}
func (PlaybackDone) isInput()    {}
func (PlaybackError) isInput()   {}
func (SwipeGesture) isInput()    {}

// Output is an event the machine emits toward the client.
type Output interface{ isOutput() }

// StateEvent announces a lifecycle transition.
type StateEvent struct {
	State          State
	Status         string
	TurnID         string
	CaptureEnabled bool
}

// AnswerEvent carries the displayed answer text.
type AnswerEvent struct {
	TurnID string
	Answer string
}

// AudioEvent carries the synthesized answer audio.
type AudioEvent struct {
	TurnID string
	Format string
	Data   []byte
}

// PlaybackCancel tells the client to stop in-flight audio before a new
// capture cycle begins.
type PlaybackCancel struct{ TurnID string }

// PresentationEvent announces the current tone/audience selection.
type PresentationEvent struct {
	ToneIndex     int
	ToneLabel     string
	AudienceIndex int
	AudienceLabel string
}

// ErrorEvent surfaces a failed turn. SpokenNotice, when set, is a short
// speakable version so a hands-free user still gets feedback.
type ErrorEvent struct {
	Code         string
	Message      string
	Retryable    bool
	SpokenNotice string
}

func (StateEvent) isOutput()        {}
func (AnswerEvent) isOutput()       {}
func (AudioEvent) isOutput()        {}
func (PlaybackCancel) isOutput()    {}
func (PresentationEvent) isOutput() {}
func (ErrorEvent) isOutput()        {}

// Machine owns one session's conversation lifecycle and presentation
// selection. Each connection gets an independent instance; there is no
// shared mutable state between sessions.
type Machine struct {
	answers brain.Provider
	voice   speech.Synthesizer
	metrics *observability.Metrics

	pres  Presentation
	state State
	turn  *Turn

	turnStarted time.Time
}

func NewMachine(answers brain.Provider, voice speech.Synthesizer, metrics *observability.Metrics) *Machine {
	return &Machine{
		answers: answers,
		voice:   voice,
		metrics: metrics,
		pres:    NewPresentation(),
		state:   StateIdle,
	}
}

func (m *Machine) State() State               { return m.state }
func (m *Machine) Presentation() Presentation { return m.pres }

// Run consumes inputs until the context ends or the input channel closes.
// Exactly one turn is in flight at a time: upstream calls happen inside the
// loop, so a second transcript cannot start a concurrent turn.
func (m *Machine) Run(ctx context.Context, in <-chan Input, out chan<- Output) {
	emit := func(o Output) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- o:
			return true
		}
	}

	emit(m.presentationEvent())
	emit(m.stateEvent(""))

	for {
		select {
		case <-ctx.Done():
			return
		case input, ok := <-in:
			if !ok {
				return
			}
			m.handle(ctx, input, emit)
		}
	}
}

func (m *Machine) handle(ctx context.Context, input Input, emit func(Output) bool) {
	switch ev := input.(type) {
	case SwipeGesture:
		// Gesture input is independent of the turn lifecycle.
		next, changed := ApplySwipe(m.pres, ev.Swipe)
		if changed {
			m.pres = next
			emit(m.presentationEvent())
		}

	case ActivateCapture:
		if !m.fire(triggerActivateCapture) {
			return
		}
		if m.turn != nil && m.turn.Status == StateSpeaking {
			// Stop-then-start: never overlap audio from two turns.
			emit(PlaybackCancel{TurnID: m.turn.ID})
		}
		m.turn = nil
		m.countEvent("capture_started")
		emit(m.stateEvent("Listening..."))

	case CaptureResult:
		transcript := strings.TrimSpace(ev.Transcript)
		if transcript == "" {
			m.handle(ctx, CaptureError{Reason: "no-speech"}, emit)
			return
		}
		if !m.fire(triggerCaptureResult) {
			return
		}
		m.turn = &Turn{
			ID:             uuid.NewString(),
			Transcript:     transcript,
			Tone:           m.pres.Tone().PromptValue(),
			AudiencePrompt: m.pres.Audience().PromptValue(),
			Status:         StateThinking,
			StartedAt:      time.Now().UTC(),
		}
		m.turnStarted = m.turn.StartedAt
		m.countEvent("transcript_recognized")
		emit(m.stateEvent("Thinking..."))
		m.answerAndSpeak(ctx, emit)

	case CaptureError:
		if !m.fire(triggerCaptureError) {
			return
		}
		m.countEvent("capture_error")
		emit(ErrorEvent{
			Code:    "capture_" + normalizeCaptureReason(ev.Reason),
			Message: captureMessage(ev.Reason),
		})
		emit(m.stateEvent(idleStatus))

	case PlaybackDone:
		if !m.fire(triggerPlaybackDone) {
			return
		}
		if m.turn != nil {
			m.turn.Status = StateIdle
			m.observeStage("turn_total", time.Since(m.turnStarted))
		}
		m.countEvent("turn_completed")
		emit(m.stateEvent(idleStatus))

	case PlaybackError:
		if !m.fire(triggerPlaybackError) {
			return
		}
		// Playback trouble is not fatal: report it and hand control back.
		m.countEvent("playback_error")
		emit(ErrorEvent{Code: "playback_error", Message: "Audio playback failed."})
		emit(m.stateEvent(idleStatus))
	}
}

// answerAndSpeak runs the thinking and speaking legs of the active turn.
func (m *Machine) answerAndSpeak(ctx context.Context, emit func(Output) bool) {
	started := time.Now()
	answer, err := m.answers.Answer(ctx, brain.Request{
		Question:       m.turn.Transcript,
		Tone:           m.turn.Tone,
		AudiencePrompt: m.turn.AudiencePrompt,
	})
	m.observeStage("answer", time.Since(started))

	if err != nil {
		m.fire(triggerAnswerFailed)
		m.turn.Status = StateFailed
		m.countEvent("answer_failed")
		emit(ErrorEvent{
			Code:      "answer_failed",
			Message:   "Oops! Something went wrong. " + err.Error(),
			Retryable: reliability.IsRetryableUpstream(err),
			// Spoken so a hands-free user is not left in silence.
			SpokenNotice: "Oops! Something went wrong.",
		})
		emit(m.stateEvent(idleStatus))
		return
	}

	m.fire(triggerAnswerReceived)
	m.turn.AnswerText = answer
	m.turn.Status = StateSpeaking
	m.countEvent("answer_received")
	emit(AnswerEvent{TurnID: m.turn.ID, Answer: answer})
	emit(m.stateEvent("Speaking..."))

	started = time.Now()
	audio, err := m.voice.Synthesize(ctx, speech.SanitizeText(answer))
	m.observeStage("synthesize", time.Since(started))

	if err != nil {
		// The synthesizer chain already tried the fallback voice; by now
		// there is nothing left to play.
		m.fire(triggerSynthFailed)
		m.turn.Status = StateFailed
		m.countEvent("synthesis_failed")
		emit(ErrorEvent{
			Code:      "synthesis_failed",
			Message:   "Could not speak the answer: " + err.Error(),
			Retryable: reliability.IsRetryableUpstream(err),
		})
		emit(m.stateEvent(idleStatus))
		return
	}

	m.fire(triggerAudioReady)
	m.countEvent("audio_ready")
	emit(AudioEvent{TurnID: m.turn.ID, Format: audio.Format, Data: audio.Data})
}

// fire applies the transition table; it reports whether the trigger is
// legal from the current state.
func (m *Machine) fire(t trigger) bool {
	next, ok := transitions[m.state][t]
	if !ok {
		m.countEvent("rejected_" + string(t))
		return false
	}
	m.state = next
	return true
}

const idleStatus = "Tap to ask another question!"

func (m *Machine) stateEvent(status string) StateEvent {
	turnID := ""
	if m.turn != nil {
		turnID = m.turn.ID
	}
	return StateEvent{
		State:          m.state,
		Status:         status,
		TurnID:         turnID,
		CaptureEnabled: m.state == StateIdle || m.state == StateSpeaking,
	}
}

func (m *Machine) presentationEvent() PresentationEvent {
	return PresentationEvent{
		ToneIndex:     m.pres.ToneIndex(),
		ToneLabel:     m.pres.Tone().String(),
		AudienceIndex: m.pres.AudienceIndex(),
		AudienceLabel: m.pres.Audience().String(),
	}
}

func (m *Machine) countEvent(event string) {
	if m.metrics == nil {
		return
	}
	m.metrics.TurnEvents.WithLabelValues(event).Inc()
}

func (m *Machine) observeStage(stage string, d time.Duration) {
	if m.metrics == nil {
		return
	}
	m.metrics.ObserveStage(stage, d)
}

func normalizeCaptureReason(reason string) string {
	switch strings.TrimSpace(reason) {
	case "no-speech":
		return "no_speech"
	case "audio-capture":
		return "audio_capture"
	case "not-allowed":
		return "not_allowed"
	default:
		return "other"
	}
}

// captureMessage maps a capture failure reason to the message shown (and
// spoken) in place of an answer.
func captureMessage(reason string) string {
	switch strings.TrimSpace(reason) {
	case "no-speech":
		return "Didn't hear anything. Try again!"
	case "audio-capture":
		return "Microphone error. Check permissions."
	case "not-allowed":
		return "Permission denied for microphone."
	default:
		return "Error: " + strings.TrimSpace(reason) + ". Try again?"
	}
}

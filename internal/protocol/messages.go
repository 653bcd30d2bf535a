package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeCaptureStart  MessageType = "capture_start"
	TypeCaptureResult MessageType = "capture_result"
	TypeCaptureError  MessageType = "capture_error"
	TypePlaybackDone  MessageType = "playback_done"
	TypePlaybackError MessageType = "playback_error"
	TypeSwipe         MessageType = "swipe"

	TypeStateEvent        MessageType = "state_event"
	TypeAnswerText        MessageType = "answer_text"
	TypeAnswerAudio       MessageType = "answer_audio"
	TypePlaybackCancel    MessageType = "playback_cancel"
	TypePresentationEvent MessageType = "presentation_event"
	TypeErrorEvent        MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Client -> server.

type CaptureStart struct {
	Type MessageType `json:"type"`
}

type CaptureResult struct {
	Type       MessageType `json:"type"`
	Transcript string      `json:"transcript"`
}

type CaptureError struct {
	Type   MessageType `json:"type"`
	Reason string      `json:"reason"`
}

type PlaybackDone struct {
	Type MessageType `json:"type"`
}

type PlaybackError struct {
	Type   MessageType `json:"type"`
	Detail string      `json:"detail,omitempty"`
}

type Swipe struct {
	Type             MessageType `json:"type"`
	DX               float64     `json:"dx"`
	DY               float64     `json:"dy"`
	OnCaptureControl bool        `json:"on_capture_control,omitempty"`
	InAnswerRegion   bool        `json:"in_answer_region,omitempty"`
}

// Server -> client.

type StateEvent struct {
	Type           MessageType `json:"type"`
	State          string      `json:"state"`
	Status         string      `json:"status,omitempty"`
	TurnID         string      `json:"turn_id,omitempty"`
	CaptureEnabled bool        `json:"capture_enabled"`
}

type AnswerText struct {
	Type   MessageType `json:"type"`
	TurnID string      `json:"turn_id"`
	Answer string      `json:"answer"`
}

type AnswerAudio struct {
	Type        MessageType `json:"type"`
	TurnID      string      `json:"turn_id"`
	Format      string      `json:"format"`
	AudioBase64 string      `json:"audio_base64"`
}

type PlaybackCancel struct {
	Type   MessageType `json:"type"`
	TurnID string      `json:"turn_id,omitempty"`
}

type PresentationEvent struct {
	Type          MessageType `json:"type"`
	ToneIndex     int         `json:"tone_index"`
	ToneLabel     string      `json:"tone_label"`
	AudienceIndex int         `json:"audience_index"`
	AudienceLabel string      `json:"audience_label"`
}

type ErrorEvent struct {
	Type         MessageType `json:"type"`
	Code         string      `json:"code"`
	Message      string      `json:"message"`
	Retryable    bool        `json:"retryable"`
	SpokenNotice string      `json:"spoken_notice,omitempty"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeCaptureStart:
		var msg CaptureStart
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeCaptureResult:
		var msg CaptureResult
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeCaptureError:
		var msg CaptureError
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Reason == "" {
			return nil, errors.New("invalid capture_error")
		}
		return msg, nil
	case TypePlaybackDone:
		var msg PlaybackDone
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypePlaybackError:
		var msg PlaybackError
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeSwipe:
		var msg Swipe
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}
}

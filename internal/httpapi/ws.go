package httpapi

import (
	"encoding/base64"

	"github.com/asperduti/dimmi/internal/protocol"
	"github.com/asperduti/dimmi/internal/turn"
)

// machineInput translates a parsed client message into a machine input.
func machineInput(msg any) turn.Input {
	switch m := msg.(type) {
	case protocol.CaptureStart:
		return turn.ActivateCapture{}
	case protocol.CaptureResult:
		return turn.CaptureResult{Transcript: m.Transcript}
	case protocol.CaptureError:
		return turn.CaptureError{Reason: m.Reason}
	case protocol.PlaybackDone:
		return turn.PlaybackDone{}
	case protocol.PlaybackError:
		return turn.PlaybackError{Detail: m.Detail}
	case protocol.Swipe:
		return turn.SwipeGesture{Swipe: turn.Swipe{
			DX:               m.DX,
			DY:               m.DY,
			OnCaptureControl: m.OnCaptureControl,
			InAnswerRegion:   m.InAnswerRegion,
		}}
	default:
		// ParseClientMessage only yields the types above.
		return turn.ActivateCapture{}
	}
}

// serverMessage translates a machine output into its wire form.
func serverMessage(out turn.Output) any {
	switch o := out.(type) {
	case turn.StateEvent:
		return protocol.StateEvent{
			Type:           protocol.TypeStateEvent,
			State:          string(o.State),
			Status:         o.Status,
			TurnID:         o.TurnID,
			CaptureEnabled: o.CaptureEnabled,
		}
	case turn.AnswerEvent:
		return protocol.AnswerText{
			Type:   protocol.TypeAnswerText,
			TurnID: o.TurnID,
			Answer: o.Answer,
		}
	case turn.AudioEvent:
		return protocol.AnswerAudio{
			Type:        protocol.TypeAnswerAudio,
			TurnID:      o.TurnID,
			Format:      o.Format,
			AudioBase64: base64.StdEncoding.EncodeToString(o.Data),
		}
	case turn.PlaybackCancel:
		return protocol.PlaybackCancel{
			Type:   protocol.TypePlaybackCancel,
			TurnID: o.TurnID,
		}
	case turn.PresentationEvent:
		return protocol.PresentationEvent{
			Type:          protocol.TypePresentationEvent,
			ToneIndex:     o.ToneIndex,
			ToneLabel:     o.ToneLabel,
			AudienceIndex: o.AudienceIndex,
			AudienceLabel: o.AudienceLabel,
		}
	case turn.ErrorEvent:
		return protocol.ErrorEvent{
			Type:         protocol.TypeErrorEvent,
			Code:         o.Code,
			Message:      o.Message,
			Retryable:    o.Retryable,
			SpokenNotice: o.SpokenNotice,
		}
	default:
		return protocol.ErrorEvent{
			Type:    protocol.TypeErrorEvent,
			Code:    "internal",
			Message: "unrecognized machine output",
		}
	}
}

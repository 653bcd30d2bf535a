package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageCaptureResult(t *testing.T) {
	raw := []byte(`{"type":"capture_result","transcript":"why is the sky blue"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	result, ok := msg.(CaptureResult)
	if !ok {
		t.Fatalf("message type = %T, want CaptureResult", msg)
	}
	if result.Transcript != "why is the sky blue" {
		t.Fatalf("unexpected capture result: %+v", result)
	}
}

func TestParseClientMessageSwipe(t *testing.T) {
	raw := []byte(`{"type":"swipe","dx":-82.5,"dy":4,"on_capture_control":true}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	swipe, ok := msg.(Swipe)
	if !ok {
		t.Fatalf("message type = %T, want Swipe", msg)
	}
	if swipe.DX != -82.5 || swipe.DY != 4 {
		t.Fatalf("unexpected swipe: %+v", swipe)
	}
	if !swipe.OnCaptureControl || swipe.InAnswerRegion {
		t.Fatalf("region flags wrong: %+v", swipe)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsEmptyCaptureErrorReason(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"capture_error","reason":""}`))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseClientMessageRejectsGarbage(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":`))
	if err == nil {
		t.Fatalf("expected envelope error")
	}
}

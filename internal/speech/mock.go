package speech

import (
	"context"
	"strings"
)

// MockSynthesizer returns the input text as bytes so playback paths can be
// exercised without any voice backend.
type MockSynthesizer struct{}

func NewMockSynthesizer() *MockSynthesizer { return &MockSynthesizer{} }

func (s *MockSynthesizer) Synthesize(_ context.Context, text string) (Audio, error) {
	return Audio{Data: []byte(strings.TrimSpace(text)), Format: "mock_text_bytes"}, nil
}

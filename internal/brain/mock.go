package brain

import (
	"context"
	"fmt"
)

// MockProvider answers locally so the app runs without an API key.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Answer(_ context.Context, req Request) (string, error) {
	return fmt.Sprintf("Here is a %s answer for a %s: I heard you ask %q.", req.Tone, req.AudiencePrompt, req.Question), nil
}

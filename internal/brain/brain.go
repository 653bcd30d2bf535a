package brain

import "context"

// Request is one "answer a question" call. All fields are validated
// non-empty by the HTTP layer before a provider is invoked.
type Request struct {
	Question       string
	Tone           string
	AudiencePrompt string
}

// Provider produces a short spoken-style answer for a question, phrased in
// the requested tone for the requested audience.
type Provider interface {
	Answer(ctx context.Context, req Request) (string, error)
}

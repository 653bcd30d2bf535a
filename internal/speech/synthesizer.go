package speech

import (
	"context"
	"strings"
)

// Audio is one synthesized utterance.
type Audio struct {
	Data   []byte
	Format string
}

// Synthesizer renders plain text into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// MIMEType maps a synthesis output format to its content type.
func MIMEType(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch {
	case strings.Contains(f, "mp3") || strings.Contains(f, "mpeg"):
		return "audio/mpeg"
	case strings.Contains(f, "wav"):
		return "audio/wav"
	case strings.Contains(f, "ogg") || strings.Contains(f, "opus"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/asperduti/dimmi/internal/audio"
)

type LocalConfig struct {
	// Command line split on whitespace, e.g. "espeak-ng --stdout".
	// Text is written to stdin and audio bytes are read from stdout.
	Command string
	// Output format the command produces ("wav", "mp3", or "pcm_<rate>"
	// for raw PCM16LE that gets wrapped as WAV before returning).
	Format string
}

// LocalSynthesizer shells out to an on-machine TTS voice. It is the
// degraded path when the upstream speech API fails: voice feedback takes
// priority over fidelity.
type LocalSynthesizer struct {
	argv   []string
	format string
}

func NewLocalSynthesizer(cfg LocalConfig) (*LocalSynthesizer, error) {
	argv := strings.Fields(cfg.Command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("local speech command is empty")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("local speech command unavailable: %w", err)
	}
	format := strings.TrimSpace(cfg.Format)
	if format == "" {
		format = "wav"
	}
	return &LocalSynthesizer{argv: argv, format: format}, nil
}

func (s *LocalSynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return Audio{}, fmt.Errorf("local speech command: %v: %s", err, detail)
		}
		return Audio{}, fmt.Errorf("local speech command: %w", err)
	}
	if out.Len() == 0 {
		return Audio{}, fmt.Errorf("local speech command produced no audio")
	}

	data := out.Bytes()
	format := s.format
	if rate, ok := pcmSampleRate(format); ok {
		wav, err := audio.EncodeWAVPCM16LE(data, rate)
		if err != nil {
			return Audio{}, fmt.Errorf("wrap pcm as wav: %w", err)
		}
		data = wav
		format = "wav"
	}
	return Audio{Data: data, Format: format}, nil
}

func pcmSampleRate(format string) (int, bool) {
	f := strings.ToLower(strings.TrimSpace(format))
	rest, ok := strings.CutPrefix(f, "pcm_")
	if !ok {
		return 0, false
	}
	rate, err := strconv.Atoi(rest)
	if err != nil || rate <= 0 {
		return 16000, true
	}
	return rate, true
}

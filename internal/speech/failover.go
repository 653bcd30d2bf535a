package speech

import (
	"context"
	"fmt"
	"sync/atomic"
)

// NewFailoverSynthesizer prefers the primary voice and automatically
// switches to fallback when primary synthesis fails. Once fallback succeeds
// it stays active until fallback fails; then primary is retried.
func NewFailoverSynthesizer(primary, fallback Synthesizer, onFallback func()) *FailoverSynthesizer {
	return &FailoverSynthesizer{
		primary:    primary,
		fallback:   fallback,
		onFallback: onFallback,
	}
}

type FailoverSynthesizer struct {
	primary        Synthesizer
	fallback       Synthesizer
	onFallback     func()
	fallbackActive atomic.Bool
}

func (s *FailoverSynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	if s.fallbackActive.Load() {
		out, fbErr := s.synthesizeFallback(ctx, text)
		if fbErr == nil {
			return out, nil
		}
		// Fallback failed after being active; try primary again.
		out, prErr := s.primary.Synthesize(ctx, text)
		if prErr == nil {
			s.fallbackActive.Store(false)
			return out, nil
		}
		return Audio{}, fmt.Errorf("speech fallback failed: %v; speech primary failed: %w", fbErr, prErr)
	}

	out, prErr := s.primary.Synthesize(ctx, text)
	if prErr == nil {
		return out, nil
	}
	if s.fallback == nil {
		return Audio{}, prErr
	}

	out, fbErr := s.synthesizeFallback(ctx, text)
	if fbErr != nil {
		return Audio{}, fmt.Errorf("speech primary failed: %v; speech fallback failed: %w", prErr, fbErr)
	}
	s.fallbackActive.Store(true)
	return out, nil
}

func (s *FailoverSynthesizer) synthesizeFallback(ctx context.Context, text string) (Audio, error) {
	if s.fallback == nil {
		return Audio{}, fmt.Errorf("no fallback voice configured")
	}
	out, err := s.fallback.Synthesize(ctx, text)
	if err == nil && s.onFallback != nil {
		s.onFallback()
	}
	return out, err
}

package brain

import (
	"context"
	"strings"
	"unicode"
)

// LimitAnswerLength caps answers at maxChars runes, cutting on a word
// boundary when one is close. maxChars <= 0 disables the cap.
func LimitAnswerLength(p Provider, maxChars int) Provider {
	if maxChars <= 0 {
		return p
	}
	return &lengthLimited{inner: p, maxChars: maxChars}
}

type lengthLimited struct {
	inner    Provider
	maxChars int
}

func (l *lengthLimited) Answer(ctx context.Context, req Request) (string, error) {
	answer, err := l.inner.Answer(ctx, req)
	if err != nil {
		return "", err
	}
	runes := []rune(answer)
	if len(runes) <= l.maxChars {
		return answer, nil
	}
	cut := l.maxChars
	for i := cut - 1; i > cut/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])), nil
}

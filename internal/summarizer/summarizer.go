// Package summarizer turns email bodies into short summaries using an
// external text-summarization model.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"mailtriage/pkg/apperr"
)

const (
	// MaxInputChars is the model context cap; longer input is cut before inference.
	MaxInputChars = 1024

	DefaultMinLength = 30
	DefaultMaxLength = 130
	DefaultTimeout   = 60 * time.Second
)

// Summarizer generates a short summary of an email body.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Lengths bounds the summary produced by the model, in model tokens.
type Lengths struct {
	Min int
	Max int
}

func (l Lengths) withDefaults() Lengths {
	if l.Min <= 0 {
		l.Min = DefaultMinLength
	}
	if l.Max <= 0 {
		l.Max = DefaultMaxLength
	}
	if l.Min > l.Max {
		l.Min = l.Max
	}
	return l
}

// prepareInput validates text and truncates it to MaxInputChars runes.
func prepareInput(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", apperr.Validation("summarize", "text must be valid UTF-8")
	}
	if strings.TrimSpace(text) == "" {
		return "", apperr.Validation("summarize", "text is empty")
	}
	if utf8.RuneCountInString(text) <= MaxInputChars {
		return text, nil
	}
	n := 0
	for i := range text {
		if n == MaxInputChars {
			return text[:i], nil
		}
		n++
	}
	return text, nil
}

// modelError reports a failed model call as a dependency error.
func modelError(backend string, err error) error {
	return apperr.Dependency("summarize", fmt.Errorf("summarization failed (%s): %w", backend, err))
}

// Package priority scores emails by urgency keywords.
package priority

import (
	"strings"
	"unicode/utf8"

	"mailtriage/pkg/apperr"
)

// Threshold is the minimum score for an email to count as important.
const Threshold = 6

type keyword struct {
	word   string
	weight int
}

// Stored priorities were computed with this table; changing it changes their meaning.
var keywords = []keyword{
	{"urgent", 10},
	{"immediately", 10},
	{"important", 8},
	{"meeting", 6},
	{"schedule", 6},
}

// Score returns the highest weight among the keywords contained in subject
// or body, or 0 if none match. Matching is case-insensitive and substring based,
// so "importantly" still matches "important".
func Score(subject, body string) (int, error) {
	if !utf8.ValidString(subject) || !utf8.ValidString(body) {
		return 0, apperr.Validation("priority.Score", "subject and body must be valid UTF-8 text")
	}

	text := strings.ToLower(subject + " " + body)
	score := 0
	for _, k := range keywords {
		if k.weight > score && strings.Contains(text, k.word) {
			score = k.weight
		}
	}
	return score, nil
}

// IsImportant reports whether a score clears Threshold.
func IsImportant(score int) bool {
	return score >= Threshold
}

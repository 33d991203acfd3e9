package exam

import (
	"strings"

	"github.com/pavelanni/homework/internal/model"
)

// OptionLetter returns the answer token for the option at position i (0 → "A").
func OptionLetter(i int) string {
	if i < 0 || i >= 26 {
		return ""
	}
	return string(rune('A' + i))
}

// LetterIndex maps an answer token back to an option position.
// The token is trimmed and compared case-insensitively.
func LetterIndex(token string) (int, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	if len(t) != 1 || t[0] < 'A' || t[0] > 'Z' {
		return 0, false
	}
	return int(t[0] - 'A'), true
}

// ResolveDisplayText turns a stored answer token into text for display.
// Multiple-choice letters map to their option text; everything else passes
// through unchanged. An empty token resolves to nothing.
func ResolveDisplayText(q model.Question, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	if q.Type != model.TypeMultipleChoice || len(q.Options) == 0 {
		return token, true
	}
	if i, ok := LetterIndex(token); ok && i < len(q.Options) {
		return q.Options[i], true
	}
	return token, true
}

// IsCorrect checks an objective answer against the key. Tokens are compared,
// never resolved option text. decided is false for subjective types, for
// unanswered questions, and when the question has no key.
func IsCorrect(q model.Question, token string) (correct, decided bool) {
	if !q.Type.Objective() || strings.TrimSpace(q.CorrectAnswer) == "" {
		return false, false
	}
	if strings.TrimSpace(token) == "" {
		return false, false
	}
	return strings.EqualFold(strings.TrimSpace(token), strings.TrimSpace(q.CorrectAnswer)), true
}

package exam

import (
	"maps"
	"strings"
)

// AnswerStore maps question IDs to the examinee's current raw answer.
// A missing key means unanswered; empty values are never stored.
// It is not safe for concurrent use; Session serialises access.
type AnswerStore struct {
	answers map[string]string
}

// NewAnswerStore returns an empty store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]string)}
}

// Set overwrites the answer for questionID. A blank value removes it.
func (s *AnswerStore) Set(questionID, value string) {
	if strings.TrimSpace(value) == "" {
		delete(s.answers, questionID)
		return
	}
	s.answers[questionID] = value
}

// Get returns the answer for questionID and whether one exists.
func (s *AnswerStore) Get(questionID string) (string, bool) {
	v, ok := s.answers[questionID]
	return v, ok
}

// Count returns the number of answered questions.
func (s *AnswerStore) Count() int {
	return len(s.answers)
}

// IsAnswered reports whether questionID has an answer.
func (s *AnswerStore) IsAnswered(questionID string) bool {
	_, ok := s.answers[questionID]
	return ok
}

// Snapshot returns an independent copy of the current answers.
func (s *AnswerStore) Snapshot() map[string]string {
	out := make(map[string]string, len(s.answers))
	maps.Copy(out, s.answers)
	return out
}

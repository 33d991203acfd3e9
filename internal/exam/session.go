package exam

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pavelanni/homework/internal/model"
)

var (
	// ErrUnknownQuestion is returned when an answer targets a question not in the assignment.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrAlreadySubmitted is returned for any change after the session was submitted.
	ErrAlreadySubmitted = errors.New("exam already submitted")
)

// Session is one examinee working through one assignment. All mutations go
// through its mutex, so answers and navigation never change concurrently.
type Session struct {
	ID            string
	ExamineeName  string
	ExamineeClass string
	StartedAt     time.Time

	mu         sync.Mutex
	assignment model.Assignment
	answers    *AnswerStore
	nav        *Navigator
	clock      *Countdown
	submission *model.Submission
	lastActive time.Time
	now        func() time.Time
}

// QuestionView is a question as shown to the examinee, without its key.
type QuestionView struct {
	Number  int                `json:"number"`
	ID      string             `json:"id"`
	Type    model.QuestionType `json:"type"`
	Content string             `json:"content"`
	Options []OptionView       `json:"options,omitempty"`
	Answer  string             `json:"answer,omitempty"`
}

// OptionView pairs an option with its answer token.
type OptionView struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// View is a snapshot of the session for rendering.
type View struct {
	SessionID     string        `json:"session_id"`
	AssignmentID  string        `json:"assignment_id"`
	Title         string        `json:"title"`
	Position      Position      `json:"position"`
	Total         int           `json:"total"`
	Answered      int           `json:"answered"`
	Remaining     int           `json:"remaining_seconds"`
	Clock         string        `json:"clock"`
	Expired       bool          `json:"expired"`
	Submitted     bool          `json:"submitted"`
	Question      *QuestionView `json:"question,omitempty"`
	AnsweredFlags []bool        `json:"answered_flags"`
}

// SummaryItem is one row of the pre-submit review list.
type SummaryItem struct {
	Number      int    `json:"number"`
	ID          string `json:"id"`
	Answered    bool   `json:"answered"`
	Answer      string `json:"answer,omitempty"`
	DisplayText string `json:"display_text,omitempty"`
}

// Summary backs the submit confirmation: how many questions are answered.
type Summary struct {
	Answered   int           `json:"answered"`
	Unanswered int           `json:"unanswered"`
	Items      []SummaryItem `json:"items"`
}

// NewSession prepares a session with a stopped clock of duration d.
func NewSession(id string, a model.Assignment, examineeName, examineeClass string, d time.Duration, now time.Time) *Session {
	return &Session{
		ID:            id,
		ExamineeName:  examineeName,
		ExamineeClass: examineeClass,
		StartedAt:     now,
		assignment:    a,
		answers:       NewAnswerStore(),
		nav:           NewNavigator(len(a.Questions)),
		clock:         NewCountdown(d),
		lastActive:    now,
		now:           time.Now,
	}
}

// touch records activity. Callers hold s.mu.
func (s *Session) touch() {
	s.lastActive = s.now()
}

// LastActive returns when the examinee last used the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Start begins the countdown.
func (s *Session) Start() {
	s.clock.Start()
}

// Assignment returns the assignment being taken.
func (s *Session) Assignment() model.Assignment {
	return s.assignment
}

// SetAnswer records value for questionID; a blank value clears it.
func (s *Session) SetAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.submission != nil {
		return ErrAlreadySubmitted
	}
	if _, ok := s.assignment.Question(questionID); !ok {
		return fmt.Errorf("question %q: %w", questionID, ErrUnknownQuestion)
	}
	s.answers.Set(questionID, value)
	return nil
}

// Answer returns the current answer for questionID.
func (s *Session) Answer(questionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Get(questionID)
}

// Next moves forward; see Navigator.Next.
func (s *Session) Next() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.nav.Next()
}

// Prev moves back; see Navigator.Prev.
func (s *Session) Prev() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.nav.Prev()
}

// JumpTo opens the question at index.
func (s *Session) JumpTo(index int) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.nav.JumpTo(index)
}

// EnterReview switches to the review screen.
func (s *Session) EnterReview() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.nav.EnterReview()
}

// View snapshots the session for display.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	pos := s.nav.Position()
	v := View{
		SessionID:     s.ID,
		AssignmentID:  s.assignment.ID,
		Title:         s.assignment.Title,
		Position:      pos,
		Total:         len(s.assignment.Questions),
		Answered:      s.answers.Count(),
		Remaining:     s.clock.Remaining(),
		Clock:         s.clock.Format(),
		Expired:       s.clock.Expired(),
		Submitted:     s.submission != nil,
		AnsweredFlags: make([]bool, len(s.assignment.Questions)),
	}
	for i, q := range s.assignment.Questions {
		v.AnsweredFlags[i] = s.answers.IsAnswered(q.ID)
	}
	if !pos.Reviewing && pos.Index < len(s.assignment.Questions) {
		q := s.assignment.Questions[pos.Index]
		qv := &QuestionView{
			Number:  pos.Index + 1,
			ID:      q.ID,
			Type:    q.Type,
			Content: q.Content,
		}
		for i, opt := range q.Options {
			qv.Options = append(qv.Options, OptionView{Letter: OptionLetter(i), Text: opt})
		}
		qv.Answer, _ = s.answers.Get(q.ID)
		v.Question = qv
	}
	return v
}

// Summary lists every question with its answer state and resolved answer text.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	sum := Summary{Items: make([]SummaryItem, 0, len(s.assignment.Questions))}
	for i, q := range s.assignment.Questions {
		item := SummaryItem{Number: i + 1, ID: q.ID}
		if ans, ok := s.answers.Get(q.ID); ok {
			item.Answered = true
			item.Answer = ans
			item.DisplayText, _ = ResolveDisplayText(q, ans)
			sum.Answered++
		} else {
			sum.Unanswered++
		}
		sum.Items = append(sum.Items, item)
	}
	return sum
}

// Submit freezes the answers into a submission and hands it to persist.
// The session is marked submitted and its clock stopped only once persist
// succeeds; on error nothing changes and the examinee can keep working or
// retry. After a successful submit every call returns ErrAlreadySubmitted.
func (s *Session) Submit(now time.Time, persist func(model.Submission) error) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submission != nil {
		return model.Submission{}, ErrAlreadySubmitted
	}
	s.touch()
	sub := BuildSubmission(s.assignment, s.ExamineeName, s.ExamineeClass, s.answers, now)
	if persist != nil {
		if err := persist(sub); err != nil {
			return model.Submission{}, err
		}
	}
	s.submission = &sub
	s.clock.Stop()
	return sub, nil
}

// Submitted reports whether Submit has succeeded.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submission != nil
}

// Close releases the clock. Safe to call more than once.
func (s *Session) Close() {
	s.clock.Stop()
}

// Package grading reduces untrusted per-question assessments from the AI
// collaborator into a complete, normalised GradingResult.
package grading

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/homework/internal/llm/schema"
	"github.com/pavelanni/homework/internal/model"
)

// Placeholder texts used when the collaborator leaves something out.
const (
	EmptyFeedback   = "No feedback provided."
	MissingFeedback = "No assessment received."
	DefaultComment  = "No overall comment provided."
)

// Entry is one per-question assessment after boundary coercion.
type Entry struct {
	QuestionID string
	Score      float64
	Feedback   string
}

// Assessment is the collaborator's reply after boundary coercion.
type Assessment struct {
	Entries        []Entry
	OverallComment string
}

// Assessor is the external grading collaborator. It returns the raw reply text.
type Assessor interface {
	Assess(ctx context.Context, a model.Assignment, s model.Submission) (string, error)
}

// Aggregator grades submissions through an Assessor.
type Aggregator struct {
	assessor Assessor
	now      func() time.Time
}

// NewAggregator creates an Aggregator backed by assessor.
func NewAggregator(assessor Assessor) *Aggregator {
	return &Aggregator{assessor: assessor, now: time.Now}
}

// Grade asks the collaborator for an assessment and reduces it. Any failure of
// the call itself, or a reply that cannot be parsed at all, is ErrGradingFailed.
func (g *Aggregator) Grade(ctx context.Context, a model.Assignment, s model.Submission) (model.GradingResult, error) {
	raw, err := g.assessor.Assess(ctx, a, s)
	if err != nil {
		return model.GradingResult{}, fmt.Errorf("%w: %w", model.ErrGradingFailed, err)
	}
	assessment, err := ParseAssessment(raw)
	if err != nil {
		slog.Warn("unparsable grading response", "submission_id", s.ID, "error", err)
		return model.GradingResult{}, fmt.Errorf("%w: %w", model.ErrGradingFailed, err)
	}
	res := Reduce(a, assessment)
	res.SubmissionID = s.ID
	res.GradedAt = g.now()
	slog.Info("submission graded",
		"submission_id", s.ID,
		"assignment_id", a.ID,
		"score", res.Score,
		"entries", len(assessment.Entries),
	)
	return res, nil
}

// ParseAssessment is the single boundary between the collaborator's JSON and
// the typed model. The envelope must validate; individual entries are coerced:
// missing or non-numeric scores become 0, scores are clamped to [0,10].
func ParseAssessment(raw string) (Assessment, error) {
	m, err := schema.DecodeGrading(raw)
	if err != nil {
		return Assessment{}, err
	}
	var out Assessment
	out.OverallComment, _ = m["overallComment"].(string)

	results, _ := m["results"].([]any)
	for _, r := range results {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		e := Entry{Score: coerceScore(obj["score"])}
		e.QuestionID, _ = obj["questionId"].(string)
		e.QuestionID = strings.TrimSpace(e.QuestionID)
		e.Feedback, _ = obj["feedback"].(string)
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

func coerceScore(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return min(f, model.MaxQuestionScore)
}

// Reduce folds assessment entries into a result whose Feedback and
// QuestionScores keys are exactly the assignment's question IDs.
// When a questionId appears more than once only the first entry counts;
// later duplicates are dropped rather than summed, so every question score
// stays within [0,10]. Reduce is pure: the same inputs always produce the
// same result.
func Reduce(a model.Assignment, as Assessment) model.GradingResult {
	known := make(map[string]bool, len(a.Questions))
	for _, q := range a.Questions {
		known[q.ID] = true
	}

	feedback := make(map[string]string, len(a.Questions))
	scores := make(map[string]float64, len(a.Questions))
	earned := 0.0
	for _, e := range as.Entries {
		if e.QuestionID == "" || !known[e.QuestionID] {
			continue
		}
		if _, seen := feedback[e.QuestionID]; seen {
			continue
		}
		fb := strings.TrimSpace(e.Feedback)
		if fb == "" {
			fb = EmptyFeedback
		}
		feedback[e.QuestionID] = fb
		scores[e.QuestionID] = e.Score
		earned += e.Score
	}

	for _, q := range a.Questions {
		if _, ok := feedback[q.ID]; !ok {
			feedback[q.ID] = MissingFeedback
			scores[q.ID] = 0
		}
	}

	comment := strings.TrimSpace(as.OverallComment)
	if comment == "" {
		comment = DefaultComment
	}

	return model.GradingResult{
		Score:          Normalize(earned, len(a.Questions)),
		TotalScore:     model.TotalScore,
		Feedback:       feedback,
		QuestionScores: scores,
		OverallComment: comment,
	}
}

// Normalize maps earned points over n questions onto the 0–10 scale,
// rounded to one decimal. Zero questions score 0.
func Normalize(earned float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	maxScore := float64(n) * model.MaxQuestionScore
	return math.Round(earned/maxScore*model.TotalScore*10) / 10
}

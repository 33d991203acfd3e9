package grading

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/pavelanni/homework/internal/model"
)

type fakeAssessor struct {
	raw   string
	err   error
	calls int
}

func (f *fakeAssessor) Assess(context.Context, model.Assignment, model.Submission) (string, error) {
	f.calls++
	return f.raw, f.err
}

func assignment(ids ...string) model.Assignment {
	a := model.Assignment{ID: "a1"}
	for _, id := range ids {
		a.Questions = append(a.Questions, model.Question{ID: id, Type: model.TypeShortAnswer})
	}
	return a
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestReduceFeedbackKeySet(t *testing.T) {
	a := assignment("q1", "q2", "q3")
	want := []string{"q1", "q2", "q3"}

	tests := []struct {
		name string
		as   Assessment
	}{
		{"empty", Assessment{}},
		{"partial", Assessment{Entries: []Entry{{QuestionID: "q2", Score: 7, Feedback: "ok"}}}},
		{"unknown ids", Assessment{Entries: []Entry{
			{QuestionID: "q9", Score: 10, Feedback: "stray"},
			{QuestionID: "", Score: 10, Feedback: "blank"},
			{QuestionID: "q1", Score: 4},
		}}},
		{"complete", Assessment{Entries: []Entry{
			{QuestionID: "q1", Score: 1}, {QuestionID: "q2", Score: 2}, {QuestionID: "q3", Score: 3},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reduce(a, tt.as)
			if got := keys(res.Feedback); !reflect.DeepEqual(got, want) {
				t.Errorf("feedback keys = %v, want %v", got, want)
			}
			if got := keys(res.QuestionScores); !reflect.DeepEqual(got, want) {
				t.Errorf("score keys = %v, want %v", got, want)
			}
			if res.TotalScore != 10 {
				t.Errorf("TotalScore = %v", res.TotalScore)
			}
		})
	}
}

func TestReducePlaceholders(t *testing.T) {
	a := assignment("q1", "q2")
	res := Reduce(a, Assessment{Entries: []Entry{{QuestionID: "q1", Score: 5, Feedback: "  "}}})
	if res.Feedback["q1"] != EmptyFeedback {
		t.Errorf("q1 feedback = %q", res.Feedback["q1"])
	}
	if res.Feedback["q2"] != MissingFeedback {
		t.Errorf("q2 feedback = %q", res.Feedback["q2"])
	}
	if res.OverallComment != DefaultComment {
		t.Errorf("comment = %q", res.OverallComment)
	}
	if res.QuestionScores["q2"] != 0 {
		t.Errorf("backfilled score = %v", res.QuestionScores["q2"])
	}
}

func TestReduceDuplicateFirstWins(t *testing.T) {
	a := assignment("q1")
	res := Reduce(a, Assessment{Entries: []Entry{
		{QuestionID: "q1", Score: 10, Feedback: "first"},
		{QuestionID: "q1", Score: 10, Feedback: "second"},
	}})
	if res.Feedback["q1"] != "first" || res.Score != 10 {
		t.Errorf("got feedback %q score %v", res.Feedback["q1"], res.Score)
	}
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		scores []float64
		want   float64
	}{
		{"all ten", []string{"q1", "q2", "q3"}, []float64{10, 10, 10}, 10},
		{"half", []string{"q1", "q2", "q3", "q4"}, []float64{10, 10, 0, 0}, 5},
		{"none returned", []string{"q1", "q2"}, nil, 0},
		{"rounded", []string{"q1", "q2", "q3"}, []float64{7, 8, 9}, 8},
		{"one decimal", []string{"q1", "q2", "q3"}, []float64{10, 0, 0}, 3.3},
		{"no questions", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var as Assessment
			for i, s := range tt.scores {
				as.Entries = append(as.Entries, Entry{QuestionID: tt.ids[i], Score: s})
			}
			res := Reduce(assignment(tt.ids...), as)
			if res.Score != tt.want {
				t.Errorf("Score = %v, want %v", res.Score, tt.want)
			}
		})
	}
}

func TestParseAssessment(t *testing.T) {
	raw := "Here you go:\n```json\n" + `{
		"results": [
			{"questionId": "q1", "score": 8, "feedback": "Good"},
			{"questionId": "q2", "score": "6.5", "feedback": "Fine"},
			{"questionId": "q3", "score": "lots"},
			{"questionId": "q4", "score": 42},
			{"questionId": "q5", "score": -3},
			{"questionId": " q6 "},
			{"questionId": "q7", "score": "Inf"},
			{"questionId": "q8", "score": "-Infinity"},
			"garbage"
		],
		"overallComment": "Keep practising"
	}` + "\n```"

	as, err := ParseAssessment(raw)
	if err != nil {
		t.Fatalf("ParseAssessment: %v", err)
	}
	if as.OverallComment != "Keep practising" {
		t.Errorf("comment = %q", as.OverallComment)
	}
	want := []Entry{
		{QuestionID: "q1", Score: 8, Feedback: "Good"},
		{QuestionID: "q2", Score: 6.5, Feedback: "Fine"},
		{QuestionID: "q3", Score: 0},
		{QuestionID: "q4", Score: 10},
		{QuestionID: "q5", Score: 0},
		{QuestionID: "q6", Score: 0},
		{QuestionID: "q7", Score: 0},
		{QuestionID: "q8", Score: 0},
	}
	if !reflect.DeepEqual(as.Entries, want) {
		t.Errorf("entries = %+v\nwant %+v", as.Entries, want)
	}
}

func TestParseAssessmentRejectsBadEnvelope(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		`{"results": "nope"}`,
		`{"overallComment": "missing results"}`,
		`{"results": [}`,
	} {
		if _, err := ParseAssessment(raw); err == nil {
			t.Errorf("ParseAssessment(%q) expected error", raw)
		}
	}
}

func TestGradeIdempotentForFixedResponse(t *testing.T) {
	a := assignment("q1", "q2")
	f := &fakeAssessor{raw: `{"results":[{"questionId":"q1","score":9,"feedback":"nice"}],"overallComment":"ok"}`}
	g := NewAggregator(f)
	sub := model.Submission{ID: "s1", AssignmentID: "a1"}

	r1, err := g.Grade(context.Background(), a, sub)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	r2, err := g.Grade(context.Background(), a, sub)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	r1.GradedAt = r2.GradedAt
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("results differ:\n%+v\n%+v", r1, r2)
	}
	if r1.Score != 4.5 || r1.SubmissionID != "s1" {
		t.Errorf("unexpected result %+v", r1)
	}
}

func TestGradeFailures(t *testing.T) {
	a := assignment("q1")
	tests := []struct {
		name string
		f    *fakeAssessor
	}{
		{"collaborator error", &fakeAssessor{err: errors.New("connection refused")}},
		{"unparsable reply", &fakeAssessor{raw: "I cannot grade this"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewAggregator(tt.f).Grade(context.Background(), a, model.Submission{ID: "s1"})
			if !errors.Is(err, model.ErrGradingFailed) {
				t.Errorf("err = %v, want ErrGradingFailed", err)
			}
			if res.Feedback != nil {
				t.Error("no partial result expected on failure")
			}
		})
	}
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	if err := g.TryAcquire("s1"); err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	if err := g.TryAcquire("s1"); !errors.Is(err, ErrBusy) {
		t.Errorf("second TryAcquire err = %v", err)
	}
	if err := g.TryAcquire("s2"); err != nil {
		t.Errorf("other submission should not be blocked: %v", err)
	}
	if !g.Busy("s1") {
		t.Error("s1 should be busy")
	}
	g.Release("s1")
	if g.Busy("s1") {
		t.Error("s1 should be released")
	}
	if err := g.TryAcquire("s1"); err != nil {
		t.Errorf("retry after release: %v", err)
	}
}

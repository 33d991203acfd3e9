package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	appI18n "github.com/pavelanni/homework/internal/i18n"
	"github.com/pavelanni/homework/internal/model"
)

func ctxFor(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	return appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang))
}

func TestSharePage(t *testing.T) {
	a := model.Assignment{
		ID:      "a1",
		Title:   "Phân số",
		Subject: "Toán",
		Grade:   6,
		Topic:   "Fractions",
		Questions: []model.Question{
			{ID: "q1", Type: model.TypeMultipleChoice, Content: `Pick <svg viewBox="0 0 10 10"><circle r="5"></circle></svg>`, Options: []string{"3/4", "x < 1", "1/8", "1"}, CorrectAnswer: "A"},
			{ID: "q2", Type: model.TypeEssay, Content: "Explain.", CorrectAnswer: "SECRET-KEY"},
		},
	}
	var buf bytes.Buffer
	if err := SharePage(a, "http://example.test/share/a1").Render(ctxFor(t, "vi"), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<html lang="vi">`,
		"Chia sẻ bài tập",
		"http://example.test/share/a1",
		"2 câu hỏi",
		"Câu 1",
		"<svg",
		"B. x &lt; 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("share page missing %q", want)
		}
	}
	if strings.Contains(out, "SECRET-KEY") {
		t.Error("share page leaked an answer key")
	}
}

func TestResultPage(t *testing.T) {
	yes, no := true, false
	exp := model.ResultExport{
		SubmissionID:  "s1",
		Title:         "Phân số",
		ExamineeName:  "Lan",
		ExamineeClass: "6A1",
		SubmittedAt:   time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC),
		Score:         6.7,
		TotalScore:    10,
		Comment:       "Good work",
		Questions: []model.QuestionResult{
			{Number: 1, ID: "q1", Type: model.TypeMultipleChoice, Content: "1/2 + 1/4?", Answer: "A", AnswerText: "3/4", CorrectAnswer: "3/4", Correct: &yes, Score: 10, Feedback: "Right."},
			{Number: 2, ID: "q2", Type: model.TypeTrueFalse, Content: "1/3 > 1/2", Answer: "Đúng", AnswerText: "Đúng", CorrectAnswer: "Sai", Correct: &no, Score: 0, Feedback: "No."},
			{Number: 3, ID: "q3", Type: model.TypeEssay, Content: "Explain.", Score: 0, Feedback: "No assessment received."},
		},
	}
	var buf bytes.Buffer
	links := ResultLinks{CSV: "/api/submissions/s1/export.csv", JSON: "/api/submissions/s1/export.json"}
	if err := ResultPage(exp, links).Render(ctxFor(t, "en"), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Score: 6.7 / 10",
		"Question 2",
		"(Correct)",
		"(Incorrect)",
		"No answer",
		"01/09/2026 08:30",
		`href="/api/submissions/s1/export.csv"`,
		"Good work",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("result page missing %q", want)
		}
	}
}

func TestPagesEscapeText(t *testing.T) {
	ctx := ctxFor(t, "en")

	var share bytes.Buffer
	a := model.Assignment{ID: "a1", Title: `<script>alert(1)</script>`, Subject: "Toán", Grade: 6, Topic: "x"}
	if err := SharePage(a, "javascript:alert(1)").Render(ctx, &share); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(share.String(), "<script>") {
		t.Error("title rendered unescaped")
	}
	if strings.Contains(share.String(), `href="javascript:`) {
		t.Error("unsafe link rendered as href")
	}

	var result bytes.Buffer
	exp := model.ResultExport{SubmissionID: "s1", Comment: `<img src=x onerror=alert(1)>`, TotalScore: 10}
	if err := ResultPage(exp, ResultLinks{}).Render(ctx, &result); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.String(), "&lt;img src=x onerror=alert(1)&gt;") {
		t.Error("comment rendered unescaped")
	}
}

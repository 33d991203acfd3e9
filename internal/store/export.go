package store

import (
	"fmt"

	"github.com/pavelanni/homework/internal/exam"
	"github.com/pavelanni/homework/internal/model"
)

// ExportResult builds the export-ready record of one graded submission.
func (s *Store) ExportResult(submissionID string) (model.ResultExport, error) {
	sub, err := s.GetSubmission(submissionID)
	if err != nil {
		return model.ResultExport{}, err
	}
	a, err := s.GetAssignment(sub.AssignmentID)
	if err != nil {
		return model.ResultExport{}, fmt.Errorf("get assignment for %s: %w", submissionID, err)
	}
	res, err := s.GetResult(submissionID)
	if err != nil {
		return model.ResultExport{}, err
	}
	return BuildExport(a, sub, res), nil
}

// BuildExport joins an assignment, a submission and its grading result into
// one row per question, in assignment order.
func BuildExport(a model.Assignment, sub model.Submission, res model.GradingResult) model.ResultExport {
	out := model.ResultExport{
		SubmissionID:  sub.ID,
		AssignmentID:  a.ID,
		Title:         a.Title,
		Subject:       a.Subject,
		Grade:         a.Grade,
		Topic:         a.Topic,
		ExamineeName:  sub.ExamineeName,
		ExamineeClass: sub.ExamineeClass,
		SubmittedAt:   sub.SubmittedAt,
		GradedAt:      res.GradedAt,
		Score:         res.Score,
		TotalScore:    res.TotalScore,
		Comment:       res.OverallComment,
	}
	for i, q := range a.Questions {
		answer := sub.Answers[q.ID]
		qr := model.QuestionResult{
			Number:   i + 1,
			ID:       q.ID,
			Type:     q.Type,
			Content:  q.Content,
			Answer:   answer,
			Score:    res.QuestionScores[q.ID],
			Feedback: res.Feedback[q.ID],
		}
		qr.AnswerText, _ = exam.ResolveDisplayText(q, answer)
		qr.CorrectAnswer, _ = exam.ResolveDisplayText(q, q.CorrectAnswer)
		if correct, decided := exam.IsCorrect(q, answer); decided {
			qr.Correct = &correct
		}
		out.Questions = append(out.Questions, qr)
	}
	return out
}

package exam

import (
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/homework/internal/model"
)

// BuildSubmission freezes the current answers into a new submission.
// The answer map is copied, so later edits to the store do not leak in.
func BuildSubmission(a model.Assignment, examineeName, examineeClass string, answers *AnswerStore, now time.Time) model.Submission {
	return model.Submission{
		ID:            uuid.NewString(),
		AssignmentID:  a.ID,
		ExamineeName:  examineeName,
		ExamineeClass: examineeClass,
		Answers:       answers.Snapshot(),
		SubmittedAt:   now,
	}
}

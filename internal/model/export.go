package model

import "time"

// ResultExport is the top-level JSON structure for a graded submission export.
type ResultExport struct {
	SubmissionID  string           `json:"submission_id"`
	AssignmentID  string           `json:"assignment_id"`
	Title         string           `json:"title"`
	Subject       string           `json:"subject"`
	Grade         int              `json:"grade"`
	Topic         string           `json:"topic"`
	ExamineeName  string           `json:"examinee_name"`
	ExamineeClass string           `json:"examinee_class"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	GradedAt      time.Time        `json:"graded_at"`
	Score         float64          `json:"score"`
	TotalScore    float64          `json:"total_score"`
	Comment       string           `json:"overall_comment"`
	Questions     []QuestionResult `json:"questions"`
}

// QuestionResult holds per-question data for export.
type QuestionResult struct {
	Number        int          `json:"number"`
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Content       string       `json:"content"`
	Answer        string       `json:"answer"`
	AnswerText    string       `json:"answer_text"`
	CorrectAnswer string       `json:"correct_answer"`
	Correct       *bool        `json:"correct,omitempty"`
	Score         float64      `json:"score"`
	Feedback      string       `json:"feedback"`
}

package model

import "time"

// QuestionType is the closed set of question kinds an assignment can hold.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeShortAnswer    QuestionType = "short_answer"
	TypeEssay          QuestionType = "essay"
)

// QuestionTypes lists every supported type in display order.
var QuestionTypes = []QuestionType{TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay}

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay:
		return true
	}
	return false
}

// Objective reports whether answers of this type can be checked by key equality.
func (t QuestionType) Objective() bool {
	return t == TypeMultipleChoice || t == TypeTrueFalse
}

// True/false answer tokens.
const (
	AnswerTrue  = "Đúng"
	AnswerFalse = "Sai"
)

// Grading scale.
const (
	MaxQuestionScore = 10.0
	TotalScore       = 10.0
)

// Difficulty represents assignment difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a single assignment question. Immutable once the assignment exists.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Content       string       `json:"content"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
}

// Assignment is an ordered set of questions. Question order is the canonical numbering.
type Assignment struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	Grade     int        `json:"grade"`
	Topic     string     `json:"topic"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// Question returns the question with the given ID.
func (a Assignment) Question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionIDs returns the question identifiers in canonical order.
func (a Assignment) QuestionIDs() []string {
	ids := make([]string, 0, len(a.Questions))
	for _, q := range a.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// Public returns a copy of the assignment with answer keys removed,
// suitable for handing to examinees.
func (a Assignment) Public() Assignment {
	out := a
	out.Questions = make([]Question, len(a.Questions))
	for i, q := range a.Questions {
		q.CorrectAnswer = ""
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}

// Submission is the frozen record of one exam session at confirmed submit.
type Submission struct {
	ID            string            `json:"id"`
	AssignmentID  string            `json:"assignment_id"`
	ExamineeName  string            `json:"examinee_name"`
	ExamineeClass string            `json:"examinee_class"`
	Answers       map[string]string `json:"answers"`
	SubmittedAt   time.Time         `json:"submitted_at"`
}

// GradingResult is the reduced outcome of grading one submission.
// Feedback and QuestionScores always carry exactly the assignment's question IDs.
type GradingResult struct {
	SubmissionID   string             `json:"submission_id"`
	Score          float64            `json:"score"`
	TotalScore     float64            `json:"total_score"`
	Feedback       map[string]string  `json:"feedback"`
	QuestionScores map[string]float64 `json:"question_scores"`
	OverallComment string             `json:"overall_comment"`
	GradedAt       time.Time          `json:"graded_at"`
}

// GenerationConfig is the teacher's request for a new assignment.
type GenerationConfig struct {
	Title      string               `json:"title" validate:"max=200"`
	Subject    string               `json:"subject" validate:"required,max=100"`
	Grade      int                  `json:"grade" validate:"min=1,max=12"`
	Topic      string               `json:"topic" validate:"required,max=200"`
	Difficulty Difficulty           `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Counts     map[QuestionType]int `json:"counts" validate:"dive,min=0,max=50"`
	SourceText string               `json:"source_text,omitempty" validate:"max=50000"`
}

// TotalQuestions sums the requested counts over supported types.
func (c GenerationConfig) TotalQuestions() int {
	total := 0
	for t, n := range c.Counts {
		if t.Valid() && n > 0 {
			total += n
		}
	}
	return total
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	ExamDuration  time.Duration
	BasePath      string // URL prefix for sub-path deployments (e.g. "/hw")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	PromptVariant string // Grading prompt variant (strict, standard, lenient)
	TeacherHash   []byte // bcrypt hash of the teacher password
}

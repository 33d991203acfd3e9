package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/homework/internal/exam"
	"github.com/pavelanni/homework/internal/model"
)

//go:embed templates/*.txt
var Templates embed.FS

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const (
	maxAnswerRunes = 10000
	maxSourceRunes = 20000
	noAnswer       = "[No answer provided]"
)

// PromptVariant represents a grading prompt variant.
type PromptVariant string

const (
	// PromptStrict is a strict grading variant.
	PromptStrict PromptVariant = "strict"
	// PromptStandard is the default grading variant.
	PromptStandard PromptVariant = "standard"
	// PromptLenient is a lenient grading variant for younger classes.
	PromptLenient PromptVariant = "lenient"
)

var variants = []PromptVariant{PromptStrict, PromptStandard, PromptLenient}

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	for _, known := range variants {
		if PromptVariant(v) == known {
			return true
		}
	}
	return false
}

var typeLabels = map[model.QuestionType]string{
	model.TypeMultipleChoice: "multiple choice (exactly 4 options, answer is the letter A-D)",
	model.TypeTrueFalse:      `true/false (answer is "Đúng" or "Sai")`,
	model.TypeShortAnswer:    "short answer",
	model.TypeEssay:          "essay",
}

// TypeCount is one requested question type.
type TypeCount struct {
	Type  model.QuestionType
	Label string
	Count int
}

// GenerateData holds template data for the generation prompt.
type GenerateData struct {
	Title      string
	Subject    string
	Grade      int
	Topic      string
	Difficulty model.Difficulty
	Counts     []TypeCount
	Total      int
	SourceText string
}

// GradeQuestion is one question with the examinee's answer, as shown to the grader.
type GradeQuestion struct {
	ID            string
	Number        int
	Type          model.QuestionType
	Content       string
	Options       []string
	CorrectAnswer string
	CorrectText   string
	Answer        string
	AnswerText    string
}

// GradeData holds template data for grading prompts.
type GradeData struct {
	Title     string
	Subject   string
	Grade     int
	Topic     string
	Questions []GradeQuestion
}

// Set is a parsed collection of prompt templates.
type Set struct {
	generate *template.Template
	grade    map[PromptVariant]*template.Template
}

// Load parses the generation template and every grading variant from fsys.
func Load(fsys fs.FS) (*Set, error) {
	s := &Set{grade: make(map[PromptVariant]*template.Template)}

	var err error
	if s.generate, err = parse(fsys, "templates/generate.txt"); err != nil {
		return nil, err
	}
	for _, v := range variants {
		tmpl, err := parse(fsys, "templates/grade_"+string(v)+".txt")
		if err != nil {
			return nil, err
		}
		s.grade[v] = tmpl
	}
	return s, nil
}

// MustLoadDefault parses the embedded templates and panics on failure.
func MustLoadDefault() *Set {
	s, err := Load(Templates)
	if err != nil {
		panic(err)
	}
	return s
}

func parse(fsys fs.FS, name string) (*template.Template, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read prompt file %s: %w", name, err)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	return tmpl, nil
}

// BuildGeneratePrompt renders the assignment generation prompt.
func (s *Set) BuildGeneratePrompt(cfg model.GenerationConfig) (string, error) {
	data := GenerateData{
		Title:      cfg.Title,
		Subject:    cfg.Subject,
		Grade:      cfg.Grade,
		Topic:      cfg.Topic,
		Difficulty: cfg.Difficulty,
		SourceText: truncate(strings.TrimSpace(cfg.SourceText), maxSourceRunes, "\n\n[Material truncated]"),
	}
	if data.Difficulty == "" {
		data.Difficulty = model.DifficultyMedium
	}
	for _, t := range model.QuestionTypes {
		if n := cfg.Counts[t]; n > 0 {
			data.Counts = append(data.Counts, TypeCount{Type: t, Label: typeLabels[t], Count: n})
			data.Total += n
		}
	}
	if data.Total == 0 {
		return "", model.ErrEmptyConfiguration
	}

	var buf bytes.Buffer
	if err := s.generate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildGradePrompt renders the grading prompt for a whole submission.
func (s *Set) BuildGradePrompt(variant PromptVariant, a model.Assignment, sub model.Submission) (string, error) {
	tmpl, ok := s.grade[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	data := GradeData{Title: a.Title, Subject: a.Subject, Grade: a.Grade, Topic: a.Topic}
	for i, q := range a.Questions {
		gq := GradeQuestion{
			ID:            q.ID,
			Number:        i + 1,
			Type:          q.Type,
			Content:       q.Content,
			CorrectAnswer: q.CorrectAnswer,
			CorrectText:   q.CorrectAnswer,
			Answer:        noAnswer,
			AnswerText:    noAnswer,
		}
		for j, opt := range q.Options {
			gq.Options = append(gq.Options, exam.OptionLetter(j)+". "+opt)
		}
		if text, ok := exam.ResolveDisplayText(q, q.CorrectAnswer); ok {
			gq.CorrectText = text
		}
		if ans, ok := sub.Answers[q.ID]; ok {
			gq.Answer = sanitizeAnswer(ans)
			text, _ := exam.ResolveDisplayText(q, ans)
			gq.AnswerText = sanitizeAnswer(text)
		}
		data.Questions = append(data.Questions, gq)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return noAnswer
	}
	return truncate(answer, maxAnswerRunes, "\n\n[Answer truncated due to length]")
}

func truncate(s string, limit int, marker string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + marker
}

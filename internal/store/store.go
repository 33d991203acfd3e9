// Package store keeps assignments, submissions, grading results and teacher
// sessions in an in-memory SQLite database. Nothing survives a restart.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/homework/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// New opens a fresh in-memory database. Each SQLite connection to ":memory:"
// is its own database, so the pool is pinned to a single connection.
func New() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		subject TEXT NOT NULL,
		grade INTEGER NOT NULL,
		topic TEXT NOT NULL,
		questions TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		assignment_id TEXT NOT NULL,
		examinee_name TEXT NOT NULL,
		examinee_class TEXT NOT NULL,
		answers TEXT NOT NULL,
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (assignment_id) REFERENCES assignments(id)
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_assignment ON submissions(assignment_id);

	CREATE TABLE IF NOT EXISTS grading_results (
		submission_id TEXT PRIMARY KEY,
		score REAL NOT NULL,
		total_score REAL NOT NULL,
		feedback TEXT NOT NULL,
		question_scores TEXT NOT NULL,
		overall_comment TEXT NOT NULL DEFAULT '',
		graded_at DATETIME NOT NULL,
		FOREIGN KEY (submission_id) REFERENCES submissions(id)
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertAssignment stores a generated assignment.
func (s *Store) InsertAssignment(a model.Assignment) error {
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO assignments (id, title, subject, grade, topic, questions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Subject, a.Grade, a.Topic, string(questions), a.CreatedAt,
	)
	if err != nil {
		slog.Error("failed to insert assignment", "id", a.ID, "error", err)
		return err
	}
	return nil
}

const assignmentColumns = `id, title, subject, grade, topic, questions, created_at`

func scanAssignment(row interface{ Scan(...any) error }) (model.Assignment, error) {
	var (
		a         model.Assignment
		questions string
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Subject, &a.Grade, &a.Topic, &questions, &a.CreatedAt); err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(questions), &a.Questions); err != nil {
		return a, fmt.Errorf("decode questions of %s: %w", a.ID, err)
	}
	return a, nil
}

// GetAssignment returns an assignment by ID.
func (s *Store) GetAssignment(id string) (model.Assignment, error) {
	a, err := scanAssignment(s.db.QueryRow(`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return a, err
}

// ListAssignments returns all assignments, newest first.
func (s *Store) ListAssignments() ([]model.Assignment, error) {
	rows, err := s.db.Query(`SELECT ` + assignmentColumns + ` FROM assignments ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertSubmission stores a frozen submission. The assignment must exist.
func (s *Store) InsertSubmission(sub model.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO submissions (id, assignment_id, examinee_name, examinee_class, answers, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.AssignmentID, sub.ExamineeName, sub.ExamineeClass, string(answers), sub.SubmittedAt,
	)
	if err != nil {
		slog.Error("failed to insert submission", "id", sub.ID, "assignment_id", sub.AssignmentID, "error", err)
		return err
	}
	return nil
}

const submissionColumns = `id, assignment_id, examinee_name, examinee_class, answers, submitted_at`

func scanSubmission(row interface{ Scan(...any) error }) (model.Submission, error) {
	var (
		sub     model.Submission
		answers string
	)
	if err := row.Scan(&sub.ID, &sub.AssignmentID, &sub.ExamineeName, &sub.ExamineeClass, &answers, &sub.SubmittedAt); err != nil {
		return sub, err
	}
	if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
		return sub, fmt.Errorf("decode answers of %s: %w", sub.ID, err)
	}
	return sub, nil
}

// GetSubmission returns a submission by ID.
func (s *Store) GetSubmission(id string) (model.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRow(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return sub, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return sub, err
}

// ListSubmissions returns the submissions for one assignment in submit order.
func (s *Store) ListSubmissions(assignmentID string) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionColumns+` FROM submissions WHERE assignment_id = ? ORDER BY submitted_at, id`, assignmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// SaveResult inserts or replaces the grading result of a submission.
func (s *Store) SaveResult(r model.GradingResult) error {
	feedback, err := json.Marshal(r.Feedback)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	scores, err := json.Marshal(r.QuestionScores)
	if err != nil {
		return fmt.Errorf("encode question scores: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO grading_results (submission_id, score, total_score, feedback, question_scores, overall_comment, graded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(submission_id) DO UPDATE SET
		   score = excluded.score,
		   total_score = excluded.total_score,
		   feedback = excluded.feedback,
		   question_scores = excluded.question_scores,
		   overall_comment = excluded.overall_comment,
		   graded_at = excluded.graded_at`,
		r.SubmissionID, r.Score, r.TotalScore, string(feedback), string(scores), r.OverallComment, r.GradedAt,
	)
	return err
}

// GetResult returns the grading result of a submission.
func (s *Store) GetResult(submissionID string) (model.GradingResult, error) {
	var (
		r                model.GradingResult
		feedback, scores string
	)
	err := s.db.QueryRow(
		`SELECT submission_id, score, total_score, feedback, question_scores, overall_comment, graded_at
		 FROM grading_results WHERE submission_id = ?`, submissionID,
	).Scan(&r.SubmissionID, &r.Score, &r.TotalScore, &feedback, &scores, &r.OverallComment, &r.GradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("result %s: %w", submissionID, ErrNotFound)
	}
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(feedback), &r.Feedback); err != nil {
		return r, fmt.Errorf("decode feedback: %w", err)
	}
	if err := json.Unmarshal([]byte(scores), &r.QuestionScores); err != nil {
		return r, fmt.Errorf("decode question scores: %w", err)
	}
	return r, nil
}

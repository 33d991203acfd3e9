package model

import "errors"

// User-facing failure classes. Callers wrap them with context and test with errors.Is.
var (
	// ErrGenerationFailed means the AI collaborator could not produce an assignment.
	ErrGenerationFailed = errors.New("assignment generation failed")
	// ErrGradingFailed means the AI collaborator could not grade a submission at all.
	ErrGradingFailed = errors.New("grading failed")
	// ErrFileReadFailed means text could not be extracted from an uploaded document.
	ErrFileReadFailed = errors.New("file read failed")
	// ErrEmptyConfiguration means no question type/count combination was selected.
	ErrEmptyConfiguration = errors.New("no questions requested")
)

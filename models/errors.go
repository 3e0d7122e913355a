package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by the store for unknown job ids and by the API
// layer for unknown artifact filenames.
var ErrNotFound = errors.New("not found")

// ErrQuotaExceeded signals that the daily generation cap has been reached.
// No external collaborator is called once this fires.
var ErrQuotaExceeded = errors.New("daily limit reached")

// StepError classifies a pipeline step failure so the stored error message
// preserves which stage broke instead of a bare string.
type StepError struct {
	Step string // "content", "download", "narration", "render", "upload"
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func NewStepError(step string, err error) *StepError {
	return &StepError{Step: step, Err: err}
}

package review

import (
	"errors"
	"fmt"
)

// Step names one of the three LLM calls inside a loop.
type Step string

const (
	StepCritique   Step = "critique"
	StepRevision   Step = "revision"
	StepEvaluation Step = "evaluation"
)

var (
	// ErrEmptyDocument is returned before any LLM call when the input is blank.
	ErrEmptyDocument = errors.New("document text is empty")
	// ErrDocumentTooLarge is returned before any LLM call when the input
	// exceeds the configured size limit.
	ErrDocumentTooLarge = errors.New("document text exceeds the size limit")
)

// StepError reports which LLM call of which loop failed. Loops completed
// before the failure stay intact on the returned session.
type StepError struct {
	Step Step
	Loop int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("loop %d: %s call failed: %v", e.Loop, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDeckNotFound indicates the deck identifier is unknown to the store.
	ErrDeckNotFound = errors.New("deck not found")
	// ErrNoSetLoaded is returned when a session action runs before any
	// question set has been loaded.
	ErrNoSetLoaded = errors.New("no question set loaded")
	// ErrEmptySet is returned when a filter produces zero questions.
	ErrEmptySet = errors.New("question set is empty")
	// ErrEmptyAnswer rejects blank or whitespace-only submissions.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrNotScored is returned when a self-assessment arrives before scoring.
	ErrNotScored = errors.New("current question has not been scored")
	// ErrInvalidJump rejects jump targets outside [1, set length].
	ErrInvalidJump = errors.New("jump target out of range")
	// ErrSessionComplete is returned when the cursor is past the last question.
	ErrSessionComplete = errors.New("session complete")
	// ErrInvalidLabel rejects self-assessments outside the known labels.
	ErrInvalidLabel = errors.New("invalid result label")
	// ErrMissionNotFound indicates an unknown mission id.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrRowNotFound indicates a write-back targeted a row the store no
	// longer has.
	ErrRowNotFound = errors.New("row not found")
)

// MissingColumnsError fails a whole deck load when required columns are
// absent; partial loads are never attempted.
type MissingColumnsError struct {
	Deck    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("deck %s: missing columns: %s", e.Deck, strings.Join(e.Columns, ", "))
}

// SurfacedError wraps a collaborator failure that must be reported to the
// user with session state preserved, so the same action can be retried.
type SurfacedError struct {
	Op  string
	Err error
}

func (e *SurfacedError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *SurfacedError) Unwrap() error { return e.Err }

// Surface converts a collaborator error at a transition boundary.
func Surface(op string, err error) error {
	return &SurfacedError{Op: op, Err: err}
}

package assess

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateAttempt = errors.New("duplicate attempt")
	ErrNotPublished     = errors.New("results not published")
	ErrNoAttempt        = errors.New("no attempt")
	ErrDeadlinePassed   = errors.New("deadline passed")
)

// WindowNotOpenError rejects an action outside [Start, End]. It carries the
// bounds so the message can tell the student exactly when the window is open.
type WindowNotOpenError struct {
	Action string
	Start  time.Time
	End    time.Time
}

func (e *WindowNotOpenError) Error() string {
	return fmt.Sprintf("%s is only open from %s to %s",
		e.Action, e.Start.UTC().Format(time.Kitchen), e.End.UTC().Format(time.Kitchen))
}

type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// notFoundf wraps ErrNotFound with the name of the missing record.
func notFoundf(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

package terminal

import "errors"

var (
	// ErrAborted signals the user aborted input (Ctrl+C).
	ErrAborted = errors.New("terminal: aborted")
	// ErrGaveUp is returned when the user declines to retry a failed submission.
	ErrGaveUp = errors.New("terminal: submission abandoned")
)

package engine

import "errors"

// Errors returned by editor operations.
var (
	// ErrReadOnly indicates an edit command was dispatched to an editor that
	// is not editable.
	ErrReadOnly = errors.New("editor is not editable")

	// ErrNoHistory indicates Undo or Redo on an editor built without history.
	ErrNoHistory = errors.New("editor has no history")

	// ErrInUpdate indicates a call that must not run inside an update
	// function, such as replacing the editor state.
	ErrInUpdate = errors.New("not allowed inside an update")

	// ErrLoopClosed is returned when posting to a stopped loop.
	ErrLoopClosed = errors.New("editor loop is closed")

	// ErrLoopFull is returned by TryPost when the task queue is full.
	ErrLoopFull = errors.New("editor loop queue full")
)

// ErrorHandler receives every error raised by updates, commits and
// reconciliation. Its return value is handed back to the caller; returning
// nil swallows the error.
type ErrorHandler func(err error) error

// returnError is the default handler: the error reaches the caller.
func returnError(err error) error {
	return err
}

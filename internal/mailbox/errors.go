package mailbox

import (
	"errors"
	"fmt"
)

// ConnectionError indicates a transport or authentication failure.
// It aborts the whole run; there is no in-run retry.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("imap connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err (or any error in its chain)
// is a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// FolderError indicates a mailbox folder could not be opened. Callers
// may fall back to a configured default folder before failing the run.
type FolderError struct {
	Folder string
	Err    error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("opening folder %q: %v", e.Folder, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// IsFolderError reports whether err (or any error in its chain) is a
// FolderError.
func IsFolderError(err error) bool {
	var fe *FolderError
	return errors.As(err, &fe)
}

// ParseError indicates a single message could not be normalized. The
// message is counted and skipped; the run continues.
type ParseError struct {
	MessageID string
	Subject   string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing message %q (%q): %v", e.MessageID, e.Subject, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err (or any error in its chain) is a
// ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

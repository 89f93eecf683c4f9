package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCatalog means the catalog was never loaded or holds no entries.
	ErrNoCatalog = errors.New("no catalog available")
	// ErrSkipped means the chosen entry is excluded by the copyright flag.
	// The caller may simply fetch again to draw a different entry.
	ErrSkipped = errors.New("entry skipped: work is copyrighted")
	// ErrNoContent means the retrieved page has no main_text container.
	ErrNoContent = errors.New("page has no main text container")
)

// Error is returned when retrieving or parsing a specific document fails. It
// carries the resolved address and the underlying cause so a single bad
// document never crashes the caller.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot fetch document %s: %s", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

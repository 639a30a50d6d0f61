package transform

import (
	"errors"
	"fmt"
)

// RejectError marks a definitive business rejection: the row is intentionally
// excluded from the cache. It is not a failure; the surrounding batch loop
// skips the row and continues.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("row rejected: %s", e.Reason)
}

func reject(format string, args ...any) error {
	return &RejectError{Reason: fmt.Sprintf(format, args...)}
}

// IsReject reports whether err is a business rejection rather than a failure.
func IsReject(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

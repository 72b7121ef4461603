package hibp

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupUnavailable reports that the range API could not be queried:
	// connection failure, timeout, or a non-2xx status. It is distinct from a
	// clean "not breached" verdict.
	ErrLookupUnavailable = errors.New("breach lookup unavailable")
	// ErrInvalidOptions is returned by New for unusable client options.
	ErrInvalidOptions = errors.New("invalid hibp client options")
	// ErrInvalidSplit is returned when a caller-supplied Split is malformed.
	ErrInvalidSplit = errors.New("invalid hash split")
	// ErrResponseTooLarge is wrapped in a [LookupError] when the range body
	// exceeds MaxResponseBytes. A truncated body cannot prove a miss.
	ErrResponseTooLarge = errors.New("range response exceeds size limit")
)

// LookupError carries the details of a failed range request. It matches
// [ErrLookupUnavailable] with errors.Is.
type LookupError struct {
	Prefix     string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("hibp: range %s: unexpected status %d", e.Prefix, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("hibp: range %s: %v", e.Prefix, e.Err)
	default:
		return fmt.Sprintf("hibp: range %s: lookup failed", e.Prefix)
	}
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func (e *LookupError) Is(target error) bool {
	return target == ErrLookupUnavailable
}

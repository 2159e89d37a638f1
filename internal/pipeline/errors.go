package pipeline

import "fmt"

// Abort reasons reported before any character work starts.
const (
	ReasonNoRegion       = "no region found"
	ReasonNoWishlists    = "no wishlists found"
	ReasonNoRaids        = "no raids found"
	ReasonNoDifficulties = "no difficulties to process"
	ReasonNoCurrentRaid  = "no current raid instance"
	ReasonNoCharacters   = "no characters to process"
)

// AbortError ends a run before any character is processed. It is logged by the
// caller; it never reflects a per-character failure.
type AbortError struct {
	Reason string
	Cause  error
}

func (e *AbortError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("run aborted: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("run aborted: %s", e.Reason)
}

func (e *AbortError) Unwrap() error {
	return e.Cause
}

func abort(reason string, cause error) *AbortError {
	return &AbortError{Reason: reason, Cause: cause}
}

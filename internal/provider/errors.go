package provider

import "fmt"

// Failure kinds surfaced by backends. The caller uses the presence of an
// *Error to decide on credit refund, never on retry; retries are fully
// contained inside the generative backend.
const (
	// KindBadStatus means the vendor endpoint returned an error status.
	KindBadStatus = "bad_status"
	// KindNoImage means the backend responded but produced no image, even
	// after the generative backend's internal retries.
	KindNoImage = "no_image"
)

// Error is a stable marker wrapping any backend failure.
type Error struct {
	Provider string
	Kind     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

package dispatcher

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnsupported means no configured provider declares the
// requested task type. Returned before any provider is contacted and
// never retried by the router.
var ErrCapabilityUnsupported = errors.New("capability unsupported")

// ErrorKind classifies why a single candidate attempt failed.
type ErrorKind string

const (
	ErrorKindBreakerOpen ErrorKind = "breaker_open"
	ErrorKindTransport   ErrorKind = "transport_error"
	ErrorKindBadStatus   ErrorKind = "bad_status"
	ErrorKindTimeout     ErrorKind = "timeout"
)

// Attempt records one failed candidate within a dispatch.
type Attempt struct {
	Provider  string    `json:"provider"`
	ErrorKind ErrorKind `json:"error_kind"`
}

// ExhaustedError is the terminal failure after every candidate was
// tried (or rejected by its breaker) without a success.
type ExhaustedError struct {
	Attempted []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all providers exhausted after %d attempts", len(e.Attempted))
}

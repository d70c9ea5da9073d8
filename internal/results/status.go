// internal/results/status.go
package results

import (
	"fmt"
	"strings"
)

// StatusKind tags the outcome of a single request.
type StatusKind int

const (
	// StatusSuccess means the server answered with a usable completion.
	StatusSuccess StatusKind = iota
	// StatusTimeout means the request exceeded the configured timeout.
	StatusTimeout
	// StatusError covers every other failure (network, non-2xx, malformed body).
	StatusError
)

const (
	errorTag    = "error:"
	errorPrefix = errorTag + " "
)

// Status is the tagged outcome of a request. Message is only meaningful for
// StatusError. On disk it is the string "success", "timeout" or "error: <message>".
type Status struct {
	Kind    StatusKind
	Message string
}

// Success returns the success status.
func Success() Status { return Status{Kind: StatusSuccess} }

// Timeout returns the timeout status.
func Timeout() Status { return Status{Kind: StatusTimeout} }

// Failure returns an error status carrying msg.
func Failure(msg string) Status { return Status{Kind: StatusError, Message: msg} }

// IsSuccess reports whether the status is StatusSuccess.
func (s Status) IsSuccess() bool { return s.Kind == StatusSuccess }

// IsTimeout reports whether the status is StatusTimeout.
func (s Status) IsTimeout() bool { return s.Kind == StatusTimeout }

func (s Status) String() string {
	switch s.Kind {
	case StatusSuccess:
		return "success"
	case StatusTimeout:
		return "timeout"
	default:
		return errorPrefix + s.Message
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Anything that is not
// "success" or "timeout" is treated as an error status, with the "error: "
// prefix removed when present.
func (s *Status) UnmarshalText(b []byte) error {
	v := strings.TrimSpace(string(b))
	switch {
	case v == "success":
		*s = Success()
	case v == "timeout":
		*s = Timeout()
	case strings.HasPrefix(v, errorTag):
		*s = Failure(strings.TrimSpace(strings.TrimPrefix(v, errorTag)))
	case v == "":
		return fmt.Errorf("empty status")
	default:
		*s = Failure(v)
	}
	return nil
}

package llm

import (
	"context"
	"errors"
	"net"
	"strings"
)

// TimeoutError marks a collaborator call that exceeded its deadline. The
// pipeline treats this class of failure as non-transient within a single run:
// it is recorded once and never retried.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err == nil {
		return "llm: request timed out"
	}
	return "llm: request timed out: " + e.Err.Error()
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is timeout-class: an explicit TimeoutError,
// a context deadline, a network timeout, or a wrapped HTTP-client timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "request timed out") ||
		strings.Contains(msg, "i/o timeout")
}

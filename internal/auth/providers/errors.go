package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Op names the upstream call that failed
type Op string

const (
	OpToken   Op = "token"
	OpProfile Op = "profile"
)

var (
	// ErrMalformedToken means the token endpoint answered 2xx without a usable access token
	ErrMalformedToken = errors.New("token response is malformed")
	// ErrInvalidProfile means the profile endpoint answered 2xx with a body that is not a JSON object
	ErrInvalidProfile = errors.New("profile response is not a JSON object")
)

// StatusError is returned when the provider answers with an unexpected status
type StatusError struct {
	Op         Op
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s endpoint returned status %d", e.Op, e.StatusCode)
}

// TransportError wraps failures to reach the provider at all
type TransportError struct {
	Op  Op
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s endpoint unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the call was cut short by a deadline
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

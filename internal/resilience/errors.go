package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// HostError is a failure attributable to the remote host: a refused or
// reset connection, a timeout, or a status that means the host is blocking
// or overloaded.
type HostError struct {
	Err        error
	StatusCode int
}

func (e *HostError) Error() string {
	return e.Err.Error()
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// NewHostError wraps err as a host failure with an optional HTTP status.
func NewHostError(err error, statusCode int) *HostError {
	return &HostError{Err: err, StatusCode: statusCode}
}

// IsHostFailure reports whether err should count against a host's breaker.
// Cancellation by the caller never counts.
func IsHostFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var he *HostError
	if errors.As(err, &he) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// HTTP clients often flatten the cause into the message.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"connection refused",
		"tls handshake timeout",
		"i/o timeout",
		"no such host",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsHostFailureStatus reports whether a response status means the host is
// refusing or unable to serve us.
func IsHostFailureStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusForbidden,
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

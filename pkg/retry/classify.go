package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

var transientErrnos = []error{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.EPIPE,
}

// Postgres and Redis report some transient states only in the message.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"the database system is starting up",
	"loading the dataset in memory",
}

// IsRetryable treats connection-level failures as transient. Cancellation
// never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

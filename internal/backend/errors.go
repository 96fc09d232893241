package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors for transport failures.
var (
	ErrUnreachable = errors.New("backend unreachable")
	ErrTimeout     = errors.New("backend request timeout")
)

// subscriptionRequiredMarker is the text the backend puts in its 4xx body
// when an upload is rejected for lack of an active subscription.
const subscriptionRequiredMarker = "Active subscription required"

// APIError is a non-2xx answer from the backend. Body is the raw response
// text; when it is empty the message falls back to "<Op> failed (<status>)".
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("%s failed (%d)", e.Op, e.StatusCode)
}

// IsSubscriptionRequired reports whether err is the backend refusing work
// because the user has no active subscription.
func IsSubscriptionRequired(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), subscriptionRequiredMarker)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

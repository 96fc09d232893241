package app

import "errors"

var (
	// ErrDownloadUnavailable is returned when the current job is missing or not done.
	ErrDownloadUnavailable = errors.New("download available only for done jobs")
	// ErrSubscriptionRequired wraps an upload rejected for lack of an active subscription.
	ErrSubscriptionRequired = errors.New("active subscription required")
)

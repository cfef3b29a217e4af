package bridge

import "errors"

// Domain errors for the bridge package. Checked with errors.Is().
var (
	// ErrBridgeUnavailable is returned when no transport connection exists.
	ErrBridgeUnavailable = errors.New("bridge: unavailable")

	// ErrPublishFailed is returned on a transport-level publish rejection.
	ErrPublishFailed = errors.New("bridge: publish failed")

	// ErrSubscribeFailed is returned when arming a capture cannot establish
	// its subscription.
	ErrSubscribeFailed = errors.New("bridge: subscribe failed")
)

package push

import "errors"

// Push channel errors.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, push.ErrNotConnected) {
//	    // fall back to polling until the channel recovers
//	}
var (
	// ErrConnectionFailed indicates the initial broker connection failed.
	ErrConnectionFailed = errors.New("push: connection failed")

	// ErrNotConnected indicates an operation requires an active connection.
	ErrNotConnected = errors.New("push: not connected")

	// ErrSubscribeFailed indicates a channel subscription could not be established.
	ErrSubscribeFailed = errors.New("push: subscribe failed")

	// ErrUnsubscribeFailed indicates a channel unsubscription failed.
	ErrUnsubscribeFailed = errors.New("push: unsubscribe failed")

	// ErrInvalidQoS indicates a QoS level outside 0-2.
	ErrInvalidQoS = errors.New("push: invalid QoS level")

	// ErrMalformedMessage indicates a push message that could not be decoded.
	ErrMalformedMessage = errors.New("push: malformed message")
)

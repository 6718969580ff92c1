package activity

import "errors"

// Activity errors.
var (
	// ErrUndecodable indicates a payload that could not be turned into an Activity.
	ErrUndecodable = errors.New("activity: undecodable payload")

	// ErrUnknownKind indicates an activity kind this engine does not track.
	ErrUnknownKind = errors.New("activity: unknown kind")
)

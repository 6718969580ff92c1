package push

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is one decoded push channel delivery.
type Message struct {
	// DeviceID is the device the message concerns, taken from the topic.
	DeviceID string

	// At is when the event occurred on the device. Falls back to the
	// receive time when the envelope carried no timestamp.
	At time.Time

	// Payload is the raw activity body for the activity decoder.
	Payload json.RawMessage
}

// envelope is the wire shape of a push channel message.
type envelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Activity  json.RawMessage `json:"activity"`
}

// decodeMessage parses a raw delivery into a Message.
func decodeMessage(topic string, payload []byte, received time.Time) (Message, error) {
	deviceID, ok := deviceIDFromTopic(topic)
	if !ok {
		return Message{}, fmt.Errorf("%w: unexpected topic %q", ErrMalformedMessage, topic)
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(env.Activity) == 0 {
		return Message{}, fmt.Errorf("%w: envelope carried no activity", ErrMalformedMessage)
	}

	at := env.Timestamp
	if at.IsZero() {
		at = received
	}

	return Message{
		DeviceID: deviceID,
		At:       at,
		Payload:  env.Activity,
	}, nil
}

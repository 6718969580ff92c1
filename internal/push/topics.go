package push

import (
	"fmt"
	"strings"
)

// topicPrefix is the base of all push channel topics.
//
// The broker publishes one topic per device under the owning account:
//
//	keyline/{brand}/user/{user_id}/device/{device_id}
const topicPrefix = "keyline"

// deviceTopic returns the channel topic for a single device.
func deviceTopic(brand, userID, deviceID string) string {
	return fmt.Sprintf("%s/%s/user/%s/device/%s", topicPrefix, brand, userID, deviceID)
}

// userWildcard returns the wildcard topic matching every device channel
// under an account.
func userWildcard(brand, userID string) string {
	return fmt.Sprintf("%s/%s/user/%s/device/+", topicPrefix, brand, userID)
}

// deviceIDFromTopic extracts the device id from a delivered topic.
// Returns false when the topic does not follow the channel scheme.
func deviceIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 6 || parts[0] != topicPrefix || parts[2] != "user" || parts[4] != "device" {
		return "", false
	}
	if parts[5] == "" {
		return "", false
	}
	return parts[5], true
}

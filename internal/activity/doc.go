// Package activity models the event stream flowing out of the device fleet.
//
// Events arrive on two paths with different latencies. The push channel
// delivers individual events almost immediately; the backend activity log is
// polled after a debounce window and returns a batch that usually overlaps
// with what push already delivered. Stream reconciles the two: per device
// and per state class it accepts only strictly newer events, so a late poll
// can never roll state backwards and duplicates are dropped exactly once.
//
// Decode turns raw push payloads into typed activities, and ApplyToDetail
// folds accepted activities into the registry's detail snapshots.
// SQLiteRepository keeps an audit trail of accepted activities for the
// host API.
package activity

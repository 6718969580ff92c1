// Package push implements the push channel that delivers device events in
// near real time, replacing most polling.
//
// The backend publishes one topic per device under the owning account.
// Client.Listen subscribes to the account-wide wildcard and hands each
// decoded Message (device id, event time, raw activity payload) to a single
// handler; the activity decoder turns payloads into typed activities.
//
// The connection state matters beyond delivery: while IsConnected reports
// true, poll-based refreshes preserve push-delivered live attributes instead
// of overwriting them with the backend's cached copies. Connection loss and
// recovery are surfaced through SetOnDisconnect and SetOnConnect.
//
// Subscriptions survive reconnects; the paho client restores them after its
// exponential backoff succeeds.
package push

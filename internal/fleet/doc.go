// Package fleet keeps the device registry synchronised with the backend.
//
// The Coordinator owns the lifecycle. Setup authenticates, hydrates the
// registry from the bulk listings, fetches an initial snapshot per device,
// prunes anything inoperative, opens the push channel, and hands every
// surviving device to the Scheduler for periodic refreshes. Stop is
// idempotent and safe to call at any point, including before Setup.
//
// Between those two calls, state flows in on three paths:
//
//   - the Scheduler fires the Refresher for each device on an interval,
//     pulling a full snapshot from the backend's detail endpoints
//   - push messages arrive through HandlePushMessage, are ordered and
//     deduplicated by the activity stream, and are folded into snapshots
//     copy-on-write
//   - the Dispatcher issues lock and unlock commands, feeding the
//     activities a confirmed operation returns straight back into the
//     stream so the registry reflects the result immediately
//
// Refreshes are sequential and failures are contained per device: one
// unreachable lock degrades only itself, never the fleet. While the push
// channel is connected, the Refresher preserves push-delivered live
// attributes across polls, since the backend's cached copies can lag
// several seconds behind.
package fleet

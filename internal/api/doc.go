// Package api implements the HTTP REST API and WebSocket server for
// Keyline Core.
//
// This package provides:
//   - REST endpoints for the device fleet, lock commands, and activity history
//   - WebSocket hub broadcasting device.updated events in real time
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The server sits between local consumers (dashboards, automations, mobile
// apps on the LAN) and the sync engine. Commands flow through the fleet
// dispatcher to the cloud backend; snapshot changes flow back through the
// engine's update notifications, which the server relays to subscribed
// WebSocket clients.
//
// # Graceful Degradation
//
// The server operates while the cloud is unreachable: reads serve the last
// known snapshots and WebSocket connections stay up, only commands fail.
package api

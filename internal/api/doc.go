// Package api implements the optional status HTTP API and WebSocket feed.
//
// This package provides:
//   - Read-only REST endpoints for health, bridge statistics, the light table
//     and the controller event journal
//   - WebSocket hub broadcasting light transitions and controller events
//   - Middleware stack (request ID, logging, recovery)
//
// # Architecture
//
// The server never drives the lights. The bridge owns the stream and the
// controller sessions; the hub is registered with them as a transition
// observer and an event sink, so every broadcast originates in the bridge.
//
// # WebSocket Channels
//
//   - light.transition: one message per decoded light change
//   - controller.event: connected, connect_failed and connection_lost
//
// New clients receive every channel. Clients narrow the feed with
// "subscribe" and "unsubscribe" messages.
package api

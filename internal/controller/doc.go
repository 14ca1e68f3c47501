// Package controller keeps networked lighting controllers connected and
// translates light transitions into controller commands.
//
// # Architecture
//
// Each physical controller gets one Session. A Session owns a Supervisor,
// which runs the connect/retry state machine, and a light inventory that maps
// logical light names to controller-specific keys:
//
//	┌───────────┐ SetLight  ┌───────────┐ SendLight ┌────────────┐
//	│  bridge   │──────────►│  Session  │──────────►│   Client   │──► controller
//	└───────────┘           └─────┬─────┘           └─────▲──────┘
//	                              │ Live()                │ Connect / onLost
//	                        ┌─────▼──────┐                │
//	                        │ Supervisor │────────────────┘
//	                        └────────────┘
//
// # Reconnection
//
// The Supervisor starts in Connecting. A successful Connect moves it to
// Connected and marks the session live. A failed attempt moves it to
// Disconnected and schedules the next attempt: the first failure in the
// supervisor's lifetime retries at once, later failures wait the retry delay.
// A connection-lost notification from the Client moves Connected to
// Disconnected and schedules a retry after the delay. There is no retry limit
// and no backoff growth.
//
// # Dropped Commands
//
// SetLight silently drops a command when the light is not in the inventory
// or when the session is not live. Both cases are counted in Stats. Any other
// failure from the Client is returned to the caller.
//
// # Thread Safety
//
// Session and Supervisor are safe for concurrent use.
package controller

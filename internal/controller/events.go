package controller

import "time"

// EventKind identifies a supervisor transition worth recording.
type EventKind string

// Supervisor event kinds.
const (
	EventConnected      EventKind = "connected"
	EventConnectFailed  EventKind = "connect_failed"
	EventConnectionLost EventKind = "connection_lost"
)

// Event describes a connection state change of one controller.
type Event struct {
	Controller string
	Kind       EventKind
	Err        error
	RetryIn    time.Duration // zero for EventConnected
	At         time.Time
}

// EventSink receives supervisor events. RecordEvent is called outside the
// supervisor's lock but on its goroutines, so implementations must not block.
type EventSink interface {
	RecordEvent(ev Event)
}

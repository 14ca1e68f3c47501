package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/sextet-lights/internal/controller"
	"github.com/nerrad567/sextet-lights/internal/sextet"
)

// Measurement names.
const (
	MeasurementTransitions = "light_transitions"
	MeasurementEvents      = "controller_events"
	MeasurementSessions    = "session_stats"
)

// ObserveTransition records one light change. Lights without a stream
// position are tagged with byte_index -1.
func (c *Client) ObserveTransition(t sextet.Transition, at time.Time) {
	if !c.IsConnected() {
		return
	}

	index := -1
	if _, ok := sextet.LightName(t.Position); ok {
		index = t.Position.Index
	}

	c.WritePointWithTime(
		MeasurementTransitions,
		map[string]string{
			"light":      t.Light,
			"byte_index": strconv.Itoa(index),
		},
		map[string]interface{}{
			"on": t.On,
		},
		at,
	)
}

// RecordEvent records a supervisor event.
func (c *Client) RecordEvent(ev controller.Event) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"retry_in_ms": ev.RetryIn.Milliseconds(),
	}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
	}

	at := ev.At
	if at.IsZero() {
		at = c.now()
	}

	c.WritePointWithTime(
		MeasurementEvents,
		map[string]string{
			"controller": ev.Controller,
			"kind":       string(ev.Kind),
		},
		fields,
		at,
	)
}

// WriteSessionStats records the final counters of one controller session.
func (c *Client) WriteSessionStats(name string, stats controller.SessionStats) {
	c.WritePoint(
		MeasurementSessions,
		map[string]string{
			"controller": name,
		},
		map[string]interface{}{
			"sent":    stats.Sent,
			"dropped": stats.Dropped,
			"lights":  stats.Lights,
			"state":   stats.State.String(),
		},
	)
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, c.now())
}

// WritePointWithTime writes a custom point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}

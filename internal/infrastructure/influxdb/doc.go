// Package influxdb records bridge telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library and writes three
// measurements:
//   - light_transitions: one point per light change (tags light, byte_index)
//   - controller_events: supervisor connection events (tags controller, kind)
//   - session_stats: per-controller counters written at shutdown
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// The client is passed to the bridge as an observer and to each controller
// session as an event sink.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; write errors are
// delivered to the SetOnError callback.
package influxdb

// Package logging provides structured logging for the sextet lights bridge.
//
// This package wraps Go's standard log/slog package. Every entry carries
// service and version fields; components add their own with Component or
// With.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("bridge").Info("sextet stream ended", "frames", n)
//
// Dropped light commands are logged at debug level; connection changes at
// info.
//
// Never log broker passwords or the InfluxDB token.
package logging

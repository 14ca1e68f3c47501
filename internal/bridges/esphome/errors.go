package esphome

import (
	"errors"
	"fmt"

	"github.com/nerrad567/sextet-lights/internal/controller"
)

// Domain errors for the ESPHome client.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when a command is sent without a live
	// connection. It matches controller.ErrNotConnected.
	ErrNotConnected = fmt.Errorf("esphome: %w", controller.ErrNotConnected)

	// ErrConnectionFailed is returned when the broker cannot be reached or
	// the node does not report itself online.
	ErrConnectionFailed = errors.New("esphome: connection failed")

	// ErrConnectionLost is passed to the onLost callback when the broker
	// connection drops.
	ErrConnectionLost = errors.New("esphome: connection lost")

	// ErrNodeOffline is reported when the node publishes its offline status.
	ErrNodeOffline = errors.New("esphome: node offline")

	// ErrPublishFailed is returned when a command cannot be delivered.
	ErrPublishFailed = errors.New("esphome: publish failed")

	// ErrSubscribeFailed is returned when a subscription is rejected.
	ErrSubscribeFailed = errors.New("esphome: subscribe failed")

	// ErrInvalidDiscovery is returned for a discovery payload that cannot
	// be decoded.
	ErrInvalidDiscovery = errors.New("esphome: invalid discovery payload")
)

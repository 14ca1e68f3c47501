package controller

import (
	"context"
	"time"
)

// EntityType tags an inventory entry. Only lights are addressable.
type EntityType string

// Entity types reported by controllers.
const (
	EntityLight EntityType = "light"
	EntityOther EntityType = "other"
)

// Entity is one item in a controller's inventory.
type Entity struct {
	Name string
	Key  string
	Type EntityType
}

// Color is an 8-bit RGB triple.
type Color struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// LightCommand is the full state sent to a light.
type LightCommand struct {
	On         bool
	Brightness float64 // 0.0 - 1.0
	Color      Color
	Transition time.Duration
}

// Client is the transport to a single controller.
//
// Connect establishes and authenticates the connection. When an established
// connection is later lost, the client calls onLost once, from any
// goroutine. Connect may be called again after a failure or loss.
type Client interface {
	Connect(ctx context.Context, onLost func(err error)) error
	ListEntities(ctx context.Context) ([]Entity, error)
	SendLight(ctx context.Context, key string, cmd LightCommand) error
	Disconnect()
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

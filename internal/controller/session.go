package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/sextet-lights/internal/clock"
)

// Command defaults: half brightness, magenta-pink, fast on and slow fade off.
const (
	DefaultBrightness    = 0.5
	DefaultOnTransition  = 10 * time.Millisecond
	DefaultOffTransition = 700 * time.Millisecond

	// DefaultInitialWait bounds how long Initialize waits for the first
	// connection before continuing without an inventory.
	DefaultInitialWait = 10 * time.Second
)

// DefaultColor is the RGB colour sent with every command.
var DefaultColor = Color{R: 232, G: 67, B: 166}

// CommandSettings holds the fixed parts of every light command.
type CommandSettings struct {
	Brightness    float64
	Color         Color
	OnTransition  time.Duration
	OffTransition time.Duration
}

// DefaultCommandSettings returns the stock command settings.
func DefaultCommandSettings() CommandSettings {
	return CommandSettings{
		Brightness:    DefaultBrightness,
		Color:         DefaultColor,
		OnTransition:  DefaultOnTransition,
		OffTransition: DefaultOffTransition,
	}
}

// Command builds the command for the given target state.
func (c CommandSettings) Command(on bool) LightCommand {
	transition := c.OffTransition
	if on {
		transition = c.OnTransition
	}
	return LightCommand{
		On:         on,
		Brightness: c.Brightness,
		Color:      c.Color,
		Transition: transition,
	}
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Name identifies the controller.
	Name string

	// Client is the controller transport. Required.
	Client Client

	// Command holds the brightness, colour and transitions of every command.
	// Zero value: DefaultCommandSettings().
	Command CommandSettings

	// InitialWait bounds how long Initialize waits for the first connection.
	// Default: 10s.
	InitialWait time.Duration

	// Clock, RetryDelay and ConnectTimeout configure the supervisor.
	Clock          clock.Clock
	RetryDelay     time.Duration
	ConnectTimeout time.Duration

	// Sinks receive supervisor events.
	Sinks []EventSink

	// Logger is optional.
	Logger Logger
}

// SessionStats holds per-session counters.
type SessionStats struct {
	Sent    uint64
	Dropped uint64
	Lights  int
	State   State
}

// Session is the logical link to one controller: its supervisor plus the
// name-to-key inventory.
//
// Thread Safety: All methods are safe for concurrent use.
type Session struct {
	name        string
	client      Client
	command     CommandSettings
	initialWait time.Duration
	supervisor  *Supervisor
	logger      Logger

	// inventory is published once and never modified afterwards.
	inventory atomic.Pointer[map[string]string]
	loadMu    sync.Mutex

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewSession creates a session and its supervisor. Call Initialize to
// connect.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("controller %q: client is required", opts.Name)
	}

	s := &Session{
		name:        opts.Name,
		client:      opts.Client,
		command:     opts.Command,
		initialWait: opts.InitialWait,
		logger:      opts.Logger,
	}
	if s.command == (CommandSettings{}) {
		s.command = DefaultCommandSettings()
	}
	if s.initialWait <= 0 {
		s.initialWait = DefaultInitialWait
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}

	s.supervisor = NewSupervisor(SupervisorOptions{
		Name:           opts.Name,
		Client:         opts.Client,
		Clock:          opts.Clock,
		RetryDelay:     opts.RetryDelay,
		ConnectTimeout: opts.ConnectTimeout,
		OnConnected:    s.handleConnected,
		Sinks:          opts.Sinks,
		Logger:         opts.Logger,
	})

	return s, nil
}

// Name returns the controller name.
func (s *Session) Name() string {
	return s.name
}

// Supervisor returns the session's reconnection supervisor.
func (s *Session) Supervisor() *Supervisor {
	return s.supervisor
}

// Initialize starts the supervisor and waits up to the initial wait for the
// first connection, then loads the light inventory. If the controller is not
// reachable in time, Initialize returns nil and the inventory is loaded on
// the first later connection. Only cancellation of ctx is returned as an
// error.
func (s *Session) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.supervisor.Start(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, s.initialWait)
	defer cancel()

	if err := s.supervisor.WaitConnected(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("controller not reachable yet, continuing without it",
			"controller", s.name,
			"waited", s.initialWait.String())
		return nil
	}

	s.loadInventory(ctx)
	return nil
}

// Close stops the supervisor and disconnects.
func (s *Session) Close() {
	s.supervisor.Stop()
}

// Lookup returns the controller key for a light. The boolean is false when
// the inventory has not been loaded or the controller has no such light.
func (s *Session) Lookup(name string) (string, bool) {
	inv := s.inventory.Load()
	if inv == nil {
		return "", false
	}
	key, ok := (*inv)[name]
	return key, ok
}

// Live reports whether the session can currently send commands.
func (s *Session) Live() bool {
	return s.supervisor.Live()
}

// SetLight switches a light on or off. Unknown lights and commands issued
// while the session is not live are dropped and nil is returned. Errors other
// than ErrNotConnected from the client are returned.
func (s *Session) SetLight(ctx context.Context, name string, on bool) error {
	key, ok := s.Lookup(name)
	if !ok {
		s.drop(name, ErrUnknownLight)
		return nil
	}
	if !s.Live() {
		s.drop(name, ErrNotConnected)
		return nil
	}

	if err := s.client.SendLight(ctx, key, s.command.Command(on)); err != nil {
		if errors.Is(err, ErrNotConnected) {
			s.drop(name, err)
			return nil
		}
		return fmt.Errorf("controller %s: set %s: %w", s.name, name, err)
	}

	s.sent.Add(1)
	return nil
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() SessionStats {
	lights := 0
	if inv := s.inventory.Load(); inv != nil {
		lights = len(*inv)
	}
	return SessionStats{
		Sent:    s.sent.Load(),
		Dropped: s.dropped.Load(),
		Lights:  lights,
		State:   s.supervisor.State(),
	}
}

func (s *Session) drop(name string, reason error) {
	s.dropped.Add(1)
	s.logger.Debug("light command dropped",
		"controller", s.name,
		"light", name,
		"reason", reason)
}

func (s *Session) handleConnected(ctx context.Context) {
	s.loadInventory(ctx)
}

// loadInventory fetches the entity list once. A failed fetch leaves the
// inventory unset so the next connection tries again.
func (s *Session) loadInventory(ctx context.Context) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.inventory.Load() != nil {
		return
	}

	entities, err := s.client.ListEntities(ctx)
	if err != nil {
		s.logger.Warn("failed to list controller entities",
			"controller", s.name,
			"error", err)
		return
	}

	inv := make(map[string]string, len(entities))
	for _, e := range entities {
		if e.Type != EntityLight {
			continue
		}
		inv[e.Name] = e.Key
	}
	s.inventory.Store(&inv)

	s.logger.Info("controller inventory loaded",
		"controller", s.name,
		"lights", len(inv),
		"entities", len(entities))
}

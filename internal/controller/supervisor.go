package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/sextet-lights/internal/clock"
)

// Supervisor defaults.
const (
	// DefaultRetryDelay is the wait before reconnecting after a loss or a
	// repeated connection failure.
	DefaultRetryDelay = 5 * time.Second

	// DefaultConnectTimeout bounds a single connection attempt.
	DefaultConnectTimeout = 10 * time.Second
)

// State is the supervisor's connection state.
type State int

// Supervisor states.
const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// SupervisorOptions configures a Supervisor.
type SupervisorOptions struct {
	// Name identifies the controller in logs and events.
	Name string

	// Client is the controller transport. Required.
	Client Client

	// Clock schedules retries. Default: clock.Real().
	Clock clock.Clock

	// RetryDelay is the fixed wait before a retry. Default: 5s.
	RetryDelay time.Duration

	// ConnectTimeout bounds each Connect call. Default: 10s.
	ConnectTimeout time.Duration

	// OnConnected runs on the attempt goroutine after every successful
	// connection, before the next state change can be observed.
	OnConnected func(ctx context.Context)

	// Sinks receive connection events.
	Sinks []EventSink

	// Logger is optional.
	Logger Logger
}

// Supervisor owns the connect/retry state machine of one controller.
//
// Retries are driven by a timer on the supervisor's Clock rather than by the
// goroutine that observed the failure, so a failure never blocks its caller.
//
// Thread Safety: All methods are safe for concurrent use.
type Supervisor struct {
	name           string
	client         Client
	clock          clock.Clock
	retryDelay     time.Duration
	connectTimeout time.Duration
	onConnected    func(ctx context.Context)
	sinks          []EventSink
	logger         Logger

	mu       sync.Mutex
	state    State
	changed  chan struct{} // closed and replaced on every state change
	failures int           // failed attempts over the supervisor's lifetime
	timer    *clock.Timer
	started  bool
	stopped  bool
	ctx      context.Context
	cancel   context.CancelFunc

	// conn numbers connection attempts; lostConn remembers a loss reported
	// before its attempt was adopted.
	conn     uint64
	lostConn uint64

	// live has a single writer: the supervisor.
	live atomic.Bool
	wg   sync.WaitGroup
}

// NewSupervisor creates a supervisor in the Connecting state. Call Start to
// make the first attempt.
func NewSupervisor(opts SupervisorOptions) *Supervisor {
	s := &Supervisor{
		name:           opts.Name,
		client:         opts.Client,
		clock:          opts.Clock,
		retryDelay:     opts.RetryDelay,
		connectTimeout: opts.ConnectTimeout,
		onConnected:    opts.OnConnected,
		sinks:          opts.Sinks,
		logger:         opts.Logger,
		state:          StateConnecting,
		changed:        make(chan struct{}),
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.retryDelay <= 0 {
		s.retryDelay = DefaultRetryDelay
	}
	if s.connectTimeout <= 0 {
		s.connectTimeout = DefaultConnectTimeout
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	return s
}

// Start launches the first connection attempt and returns immediately,
// whatever its outcome. Calling Start more than once has no effect.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.launchLocked()
}

// Stop cancels any pending retry and in-flight attempt, waits for them to
// finish and disconnects the client. Safe to call multiple times.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	cancel := s.cancel
	wasLive := s.live.Swap(false)
	s.notifyLocked()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	if wasLive {
		s.client.Disconnect()
	}
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Live reports whether commands can currently be sent.
func (s *Supervisor) Live() bool {
	return s.live.Load()
}

// Name returns the controller name.
func (s *Supervisor) Name() string {
	return s.name
}

// WaitConnected blocks until the supervisor is Connected, ctx is done, or
// the supervisor is stopped.
func (s *Supervisor) WaitConnected(ctx context.Context) error {
	for {
		s.mu.Lock()
		state, changed, stopped := s.state, s.changed, s.stopped
		s.mu.Unlock()

		if stopped {
			return ErrStopped
		}
		if state == StateConnected {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// launchLocked enters Connecting and starts an attempt. Must be called with
// s.mu held.
func (s *Supervisor) launchLocked() {
	s.conn++
	s.setStateLocked(StateConnecting)
	s.wg.Add(1)
	go s.attempt(s.ctx, s.conn)
}

func (s *Supervisor) attempt(ctx context.Context, conn uint64) {
	defer s.wg.Done()

	attemptCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	err := s.client.Connect(attemptCtx, func(lostErr error) {
		s.handleLost(conn, lostErr)
	})
	cancel()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		if err == nil {
			s.client.Disconnect()
		}
		return
	}

	if err != nil {
		s.failures++
		delay := s.retryDelay
		if s.failures == 1 {
			delay = 0
		}
		s.setStateLocked(StateDisconnected)
		s.scheduleLocked(delay)
		s.mu.Unlock()

		s.logger.Info("could not connect to controller",
			"controller", s.name,
			"error", err,
			"retry_in", delay.String())
		s.emit(Event{Kind: EventConnectFailed, Err: err, RetryIn: delay})
		return
	}

	if s.lostConn == conn {
		// The client reported a loss before this attempt was adopted.
		s.setStateLocked(StateDisconnected)
		s.scheduleLocked(s.retryDelay)
		s.mu.Unlock()

		s.logger.Info("lost connection to controller",
			"controller", s.name,
			"retry_in", s.retryDelay.String())
		s.emit(Event{Kind: EventConnectionLost, RetryIn: s.retryDelay})
		return
	}

	s.live.Store(true)
	s.setStateLocked(StateConnected)
	s.mu.Unlock()

	s.logger.Info("connected to controller", "controller", s.name)
	s.emit(Event{Kind: EventConnected})

	if s.onConnected != nil {
		s.onConnected(ctx)
	}
}

func (s *Supervisor) handleLost(conn uint64, err error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if conn != s.conn || s.state != StateConnected {
		if conn == s.conn {
			s.lostConn = conn
		}
		s.mu.Unlock()
		return
	}

	s.live.Store(false)
	s.setStateLocked(StateDisconnected)
	s.scheduleLocked(s.retryDelay)
	s.mu.Unlock()

	s.logger.Info("lost connection to controller",
		"controller", s.name,
		"error", err,
		"retry_in", s.retryDelay.String())
	s.emit(Event{Kind: EventConnectionLost, Err: err, RetryIn: s.retryDelay})
}

// scheduleLocked arranges the next attempt. A zero delay re-enters
// Connecting at once on a new goroutine. Must be called with s.mu held.
func (s *Supervisor) scheduleLocked(delay time.Duration) {
	if delay <= 0 {
		s.launchLocked()
		return
	}
	s.timer = s.clock.AfterFunc(delay, s.retry)
}

func (s *Supervisor) retry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.state != StateDisconnected {
		return
	}
	s.timer = nil
	s.launchLocked()
}

func (s *Supervisor) setStateLocked(state State) {
	s.state = state
	s.notifyLocked()
}

func (s *Supervisor) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Supervisor) emit(ev Event) {
	if len(s.sinks) == 0 {
		return
	}
	ev.Controller = s.name
	ev.At = s.clock.Now()
	for _, sink := range s.sinks {
		sink.RecordEvent(ev)
	}
}

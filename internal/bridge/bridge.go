package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/sextet-lights/internal/clock"
	"github.com/nerrad567/sextet-lights/internal/controller"
	"github.com/nerrad567/sextet-lights/internal/sextet"
)

// DefaultQueueSize is the number of frame batches buffered per session.
const DefaultQueueSize = 64

// Session is a controller link driven by the bridge.
// *controller.Session implements it.
type Session interface {
	Name() string
	Initialize(ctx context.Context) error
	SetLight(ctx context.Context, name string, on bool) error
	Stats() controller.SessionStats
	Close()
}

// Observer is told about every transition decoded from the stream, once,
// regardless of the number of sessions.
type Observer interface {
	ObserveTransition(t sextet.Transition, at time.Time)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Options configures a Bridge.
type Options struct {
	// Sessions are the controllers to drive. At least one is required.
	Sessions []Session

	// MainLight is switched off at startup and when the stream ends.
	// Default: sextet.MainLight.
	MainLight string

	// QueueSize bounds the batches waiting per session. Default: 64.
	QueueSize int

	// Observers receive every transition.
	Observers []Observer

	// Clock timestamps observed transitions. Default: clock.Real().
	Clock clock.Clock

	// Logger is optional.
	Logger Logger
}

// Stats is a snapshot of the bridge counters.
type Stats struct {
	Frames       uint64
	Transitions  uint64
	PartialBytes int
	Sessions     map[string]controller.SessionStats
}

// Bridge feeds a sextet stream to controller sessions.
//
// Thread Safety: Run must be called once. Stats is safe to call at any time.
type Bridge struct {
	sessions  []Session
	mainLight string
	queueSize int
	observers []Observer
	clock     clock.Clock
	logger    Logger

	frames      atomic.Uint64
	transitions atomic.Uint64
	partial     atomic.Int64
}

// New creates a bridge.
func New(opts Options) (*Bridge, error) {
	if len(opts.Sessions) == 0 {
		return nil, ErrNoSessions
	}

	b := &Bridge{
		sessions:  opts.Sessions,
		mainLight: opts.MainLight,
		queueSize: opts.QueueSize,
		observers: opts.Observers,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
	if b.mainLight == "" {
		b.mainLight = sextet.MainLight
	}
	if b.queueSize <= 0 {
		b.queueSize = DefaultQueueSize
	}
	if b.clock == nil {
		b.clock = clock.Real()
	}
	if b.logger == nil {
		b.logger = nopLogger{}
	}
	return b, nil
}

// Run initializes every session, switches the main light off, then streams
// input until it ends. At the end of the stream the main light is switched
// off again on every session and nil is returned. If ctx is cancelled, Run
// returns ctx.Err() without touching the lights. Sessions are closed before
// Run returns.
//
// If input is an io.Closer it is closed when Run stops early, so that a
// blocked read returns. Input that reaches EOF is left open.
func (b *Bridge) Run(ctx context.Context, input io.Reader) error {
	return b.run(ctx, func(context.Context) (io.Reader, error) {
		return input, nil
	})
}

// RunPath is Run for a source opened with OpenInput once the controllers are
// initialized. The source is closed before RunPath returns. Opening a FIFO
// blocks until a writer appears; cancelling ctx abandons the open.
func (b *Bridge) RunPath(ctx context.Context, path string) error {
	var opened io.Closer
	defer func() {
		if opened != nil && opened != os.Stdin {
			_ = opened.Close()
		}
	}()

	return b.run(ctx, func(ctx context.Context) (io.Reader, error) {
		type result struct {
			rc  io.ReadCloser
			err error
		}
		done := make(chan result, 1)
		go func() {
			rc, err := OpenInput(path)
			done <- result{rc, err}
		}()

		select {
		case r := <-done:
			if r.err != nil {
				return nil, r.err
			}
			opened = r.rc
			b.logger.Info("sextet input opened", "path", path)
			return r.rc, nil
		case <-ctx.Done():
			go func() {
				if r := <-done; r.rc != nil && r.rc != os.Stdin {
					_ = r.rc.Close()
				}
			}()
			return nil, ctx.Err()
		}
	})
}

func (b *Bridge) run(ctx context.Context, open func(context.Context) (io.Reader, error)) error {
	defer b.closeSessions()

	if err := b.initialize(ctx); err != nil {
		return b.interrupted(ctx, err)
	}
	if err := b.mainLightOff(ctx); err != nil {
		return b.interrupted(ctx, fmt.Errorf("switching %s off: %w", b.mainLight, err))
	}

	input, err := open(ctx)
	if err != nil {
		return b.interrupted(ctx, err)
	}

	if err := b.stream(ctx, input); err != nil {
		return b.interrupted(ctx, err)
	}
	if ctx.Err() != nil {
		return b.interrupted(ctx, ctx.Err())
	}

	b.logger.Info("sextet stream ended",
		"frames", b.frames.Load(),
		"transitions", b.transitions.Load())

	if err := b.mainLightOff(ctx); err != nil {
		return b.interrupted(ctx, fmt.Errorf("switching %s off: %w", b.mainLight, err))
	}

	b.logStats()
	return nil
}

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() Stats {
	s := Stats{
		Frames:       b.frames.Load(),
		Transitions:  b.transitions.Load(),
		PartialBytes: int(b.partial.Load()),
		Sessions:     make(map[string]controller.SessionStats, len(b.sessions)),
	}
	for _, session := range b.sessions {
		s.Sessions[session.Name()] = session.Stats()
	}
	return s
}

// interrupted prefers the context's error once ctx is done.
func (b *Bridge) interrupted(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		b.logger.Info("bridge interrupted, leaving lights as they are",
			"frames", b.frames.Load())
		return ctxErr
	}
	return err
}

// initialize starts every session concurrently. The sessions keep ctx for
// their supervisors, so it must outlive this call.
func (b *Bridge) initialize(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range b.sessions {
		g.Go(func() error {
			if err := s.Initialize(ctx); err != nil {
				return fmt.Errorf("initializing controller %s: %w", s.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *Bridge) mainLightOff(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range b.sessions {
		g.Go(func() error {
			return s.SetLight(gctx, b.mainLight, false)
		})
	}
	return g.Wait()
}

func (b *Bridge) closeSessions() {
	for _, s := range b.sessions {
		s.Close()
	}
}

// stream runs the decoder and one dispatcher per session until the input
// ends and every queue is drained.
func (b *Bridge) stream(ctx context.Context, input io.Reader) error {
	g, gctx := errgroup.WithContext(ctx)

	// The input is closed only to unblock a read when the stream stops
	// early; the decoder disarms this once it returns.
	disarm := func() bool { return false }
	if closer, ok := input.(io.Closer); ok {
		disarm = context.AfterFunc(gctx, func() { _ = closer.Close() })
	}

	queues := make([]chan []sextet.Transition, len(b.sessions))
	for i, s := range b.sessions {
		queues[i] = make(chan []sextet.Transition, b.queueSize)
		q := queues[i]
		g.Go(func() error {
			return b.dispatch(gctx, s, q)
		})
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		err := b.decode(gctx, input, queues)
		disarm()
		return err
	})

	return g.Wait()
}

func (b *Bridge) decode(ctx context.Context, input io.Reader, queues []chan []sextet.Transition) error {
	dec := sextet.NewDecoder(input)
	var differ sextet.Differ

	for {
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			if partial := dec.Partial(); partial > 0 {
				b.partial.Store(int64(partial))
				b.logger.Debug("discarded trailing partial frame", "bytes", partial)
			}
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		b.frames.Add(1)

		batch := slices.Collect(differ.Apply(frame))
		if len(batch) == 0 {
			continue
		}
		b.transitions.Add(uint64(len(batch)))

		if len(b.observers) > 0 {
			now := b.clock.Now()
			for _, t := range batch {
				for _, o := range b.observers {
					o.ObserveTransition(t, now)
				}
			}
		}

		for _, q := range queues {
			select {
			case q <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// dispatch applies one session's batches in order until its queue is
// closed and drained. An error from one session is fatal to the whole run
// and stops every other session's dispatcher as well.
func (b *Bridge) dispatch(ctx context.Context, s Session, queue <-chan []sextet.Transition) error {
	for {
		select {
		case batch, ok := <-queue:
			if !ok {
				return nil
			}
			for _, t := range batch {
				if err := s.SetLight(ctx, t.Light, t.On); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Bridge) logStats() {
	for _, s := range b.sessions {
		stats := s.Stats()
		b.logger.Info("controller session finished",
			"controller", s.Name(),
			"state", stats.State.String(),
			"sent", stats.Sent,
			"dropped", stats.Dropped,
			"lights", stats.Lights)
	}
}

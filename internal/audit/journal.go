package audit

import (
	"context"
	"sync"

	"github.com/nerrad567/sextet-lights/internal/controller"
)

// DefaultQueueSize bounds the events waiting to be written. Events beyond it
// are dropped with a warning.
const DefaultQueueSize = 256

// Logger is the logging interface used by the journal.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Journal records supervisor events through a Repository. RecordEvent only
// enqueues; a single goroutine writes entries in order.
//
// Thread Safety: All methods are safe for concurrent use.
type Journal struct {
	repo   Repository
	logger Logger

	mu     sync.RWMutex
	closed bool
	queue  chan *Entry
	done   chan struct{}
}

// NewJournal starts the journal's writer goroutine. Call Close to flush
// and stop it.
func NewJournal(repo Repository, queueSize int, logger Logger) *Journal {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = nopLogger{}
	}
	j := &Journal{
		repo:   repo,
		logger: logger,
		queue:  make(chan *Entry, queueSize),
		done:   make(chan struct{}),
	}
	go j.drain()
	return j
}

// RecordEvent implements controller.EventSink.
func (j *Journal) RecordEvent(ev controller.Event) {
	entry := &Entry{
		Controller: ev.Controller,
		Kind:       string(ev.Kind),
		RetryIn:    ev.RetryIn,
		CreatedAt:  ev.At,
	}
	if ev.Err != nil {
		entry.Error = ev.Err.Error()
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}

	select {
	case j.queue <- entry:
	default:
		j.logger.Warn("event journal queue full, dropping entry",
			"controller", ev.Controller,
			"kind", ev.Kind)
	}
}

// Close writes the queued entries and stops the writer. Events recorded
// afterwards are ignored.
func (j *Journal) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
}

func (j *Journal) drain() {
	defer close(j.done)
	for entry := range j.queue {
		if err := j.repo.Create(context.Background(), entry); err != nil {
			j.logger.Error("event journal write failed",
				"controller", entry.Controller,
				"kind", entry.Kind,
				"error", err)
		}
	}
}

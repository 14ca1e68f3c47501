package controller

import (
	"context"
	"sync"
)

type sentCommand struct {
	key string
	cmd LightCommand
}

// fakeClient scripts connection outcomes and records commands.
type fakeClient struct {
	mu          sync.Mutex
	results     []error // consumed per Connect; nil once exhausted
	connects    int
	onLost      func(error)
	lostOnDial  bool // report a loss from inside Connect
	block       bool // block Connect until ctx is done
	entities    []Entity
	listErr     error
	listCalls   int
	sendErr     error
	sent        []sentCommand
	disconnects int
}

func (f *fakeClient) Connect(ctx context.Context, onLost func(error)) error {
	f.mu.Lock()
	f.connects++
	block := f.block
	var err error
	if len(f.results) > 0 {
		err = f.results[0]
		f.results = f.results[1:]
	}
	if err == nil {
		f.onLost = onLost
	}
	lostOnDial := f.lostOnDial
	f.lostOnDial = false
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err == nil && lostOnDial {
		onLost(errLinkDown)
	}
	return err
}

func (f *fakeClient) ListEntities(context.Context) ([]Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entities, nil
}

func (f *fakeClient) SendLight(_ context.Context, key string, cmd LightCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentCommand{key: key, cmd: cmd})
	return nil
}

func (f *fakeClient) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

// loseConnection invokes the callback of the current connection.
func (f *fakeClient) loseConnection(err error) {
	f.mu.Lock()
	cb := f.onLost
	f.mu.Unlock()
	cb(err)
}

func (f *fakeClient) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeClient) sentCommands() []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCommand(nil), f.sent...)
}

func (f *fakeClient) set(fn func(f *fakeClient)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// eventRecorder is an EventSink that keeps every event.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) RecordEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

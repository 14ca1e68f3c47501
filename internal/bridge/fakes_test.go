package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/sextet-lights/internal/clock"
	"github.com/nerrad567/sextet-lights/internal/controller"
	"github.com/nerrad567/sextet-lights/internal/sextet"
)

type command struct {
	light string
	on    bool
}

// recordingClient is a controller.Client that records commands by light
// name. Keys are "key/" + name.
type recordingClient struct {
	mu         sync.Mutex
	connectErr error
	sendErr    error
	gate       chan struct{} // when set, non-main commands wait for it
	commands   []command
}

func (c *recordingClient) Connect(_ context.Context, _ func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectErr
}

func (c *recordingClient) ListEntities(context.Context) ([]controller.Entity, error) {
	entities := []controller.Entity{
		{Name: sextet.MainLight, Key: "key/" + sextet.MainLight, Type: controller.EntityLight},
		{Name: "fog_machine", Key: "key/fog_machine", Type: controller.EntityOther},
	}
	for _, name := range sextet.MappedLights() {
		entities = append(entities, controller.Entity{Name: name, Key: "key/" + name, Type: controller.EntityLight})
	}
	return entities, nil
}

func (c *recordingClient) SendLight(ctx context.Context, key string, cmd controller.LightCommand) error {
	light := key[len("key/"):]

	c.mu.Lock()
	gate, err := c.gate, c.sendErr
	c.mu.Unlock()

	if gate != nil && light != sextet.MainLight {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, command{light: light, on: cmd.On})
	return nil
}

func (c *recordingClient) Disconnect() {}

func (c *recordingClient) recorded() []command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]command(nil), c.commands...)
}

func newTestSession(t *testing.T, name string, client controller.Client) *controller.Session {
	t.Helper()
	s, err := controller.NewSession(controller.SessionOptions{
		Name:        name,
		Client:      client,
		Clock:       clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		InitialWait: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// transitionRecorder is an Observer.
type transitionRecorder struct {
	mu          sync.Mutex
	transitions []sextet.Transition
}

func (r *transitionRecorder) ObserveTransition(t sextet.Transition, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

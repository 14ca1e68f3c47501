package esphome

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/sextet-lights/internal/controller"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/config"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Client talks to one ESPHome node through an MQTT broker. It implements
// controller.Client.
//
// Each Connect dials a new paho client; the previous one is discarded.
type Client struct {
	cfg            config.ControllerConfig
	qos            byte
	quiet          time.Duration
	publishTimeout time.Duration
	logger         Logger

	// newClient is replaced in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client

	mu   sync.Mutex
	link *link
}

var _ controller.Client = (*Client)(nil)

// New creates a client for the controller. It does not connect.
func New(cfg config.ControllerConfig, logger Logger) *Client {
	quiet := cfg.GetDiscoveryQuiet()
	if quiet <= 0 {
		quiet = defaultDiscoveryQuiet
	}
	if cfg.DiscoveryPrefix == "" {
		cfg.DiscoveryPrefix = config.DefaultDiscoveryPrefix
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Client{
		cfg:            cfg,
		qos:            byte(cfg.QoS),
		quiet:          quiet,
		publishTimeout: defaultPublishTimeout,
		logger:         logger,
		newClient:      pahomqtt.NewClient,
	}
}

// Connect dials the broker and waits until the node reports itself online.
// onLost is called at most once for the connection, when the broker link
// drops or the node goes offline. Any previous connection is closed first.
func (c *Client) Connect(ctx context.Context, onLost func(error)) error {
	c.Disconnect()

	l := newLink(onLost)
	opts := buildClientOptions(c.cfg)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		l.fail(fmt.Errorf("%w: %w", ErrConnectionLost, err))
	})
	l.conn = c.newClient(opts)

	if err := waitToken(ctx, l.conn.Connect(), 0); err != nil {
		l.close()
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, brokerURL(c.cfg), err)
	}

	statusTopic := StatusTopic(c.cfg.Node)
	token := l.conn.Subscribe(statusTopic, c.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		l.handleStatus(string(msg.Payload()))
	})
	if err := waitToken(ctx, token, defaultPublishTimeout); err != nil {
		l.close()
		return fmt.Errorf("%w: %w: %s: %w", ErrConnectionFailed, ErrSubscribeFailed, statusTopic, err)
	}

	if err := l.waitOnline(ctx); err != nil {
		l.close()
		return fmt.Errorf("%w: node %s: %w", ErrConnectionFailed, c.cfg.Node, err)
	}

	c.mu.Lock()
	c.link = l
	c.mu.Unlock()

	// An offline status that raced with adoption is reported now.
	l.adopt()
	return nil
}

// ListEntities collects the node's retained discovery messages.
func (c *Client) ListEntities(ctx context.Context) ([]controller.Entity, error) {
	l := c.current()
	if l == nil {
		return nil, ErrNotConnected
	}

	done := make(chan struct{})
	defer close(done)

	type discovery struct {
		topic   string
		payload []byte
	}
	msgs := make(chan discovery, 32)

	filter := DiscoveryFilter(c.cfg.DiscoveryPrefix, c.cfg.Node)
	token := l.conn.Subscribe(filter, c.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		select {
		case msgs <- discovery{topic: msg.Topic(), payload: msg.Payload()}:
		case <-done:
		}
	})
	if err := waitToken(ctx, token, defaultPublishTimeout); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, filter, err)
	}
	defer func() {
		if !l.conn.Unsubscribe(filter).WaitTimeout(defaultPublishTimeout) {
			c.logger.Warn("discovery unsubscribe timed out", "controller", c.cfg.Name)
		}
	}()

	byTopic := make(map[string]controller.Entity)
	quiet := time.NewTimer(c.quiet)
	defer quiet.Stop()

	for {
		select {
		case m := <-msgs:
			entity, ok, err := parseDiscovery(c.cfg.DiscoveryPrefix, m.topic, m.payload)
			switch {
			case err != nil:
				c.logger.Warn("ignoring discovery message",
					"controller", c.cfg.Name,
					"error", err)
			case ok:
				byTopic[m.topic] = entity
			default:
				delete(byTopic, m.topic)
			}
			quiet.Reset(c.quiet)

		case <-quiet.C:
			entities := make([]controller.Entity, 0, len(byTopic))
			for _, e := range byTopic {
				entities = append(entities, e)
			}
			slices.SortFunc(entities, func(a, b controller.Entity) int {
				return cmp.Compare(a.Name, b.Name)
			})
			return entities, nil

		case <-l.lost:
			return nil, ErrNotConnected

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SendLight publishes a JSON light command to the entity's command topic.
// It returns ErrNotConnected when the connection is down. A publish that
// fails or times out on a live connection also returns ErrNotConnected and
// reports the connection as lost, so the supervisor reconnects.
func (c *Client) SendLight(ctx context.Context, key string, cmd controller.LightCommand) error {
	l := c.current()
	if l == nil || l.isDown() || !l.conn.IsConnected() {
		return ErrNotConnected
	}

	payload, err := encodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("%w: encoding command: %w", ErrPublishFailed, err)
	}

	if err := waitToken(ctx, l.conn.Publish(key, c.qos, false, payload), c.publishTimeout); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %w", ErrPublishFailed, key, err)
		}
		// MQTT 3.1.1 has no publish rejection: a failed or stalled token
		// means the broker link is gone, whether or not paho has noticed.
		l.fail(fmt.Errorf("%w: publishing to %s: %w", ErrConnectionLost, key, err))
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	c.logger.Debug("light command published",
		"controller", c.cfg.Name,
		"topic", key,
		"payload", string(payload))
	return nil
}

// Disconnect closes the current connection without reporting a loss.
func (c *Client) Disconnect() {
	c.mu.Lock()
	l := c.link
	c.link = nil
	c.mu.Unlock()

	if l != nil {
		l.close()
	}
}

func (c *Client) current() *link {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link
}

// waitToken waits for a paho token until ctx is done or, if timeout is
// positive, the timeout elapses.
func waitToken(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return fmt.Errorf("timeout after %v", timeout)
	}
}

// link is one broker connection. Its loss is reported once.
type link struct {
	conn   pahomqtt.Client
	onLost func(error)

	once sync.Once
	lost chan struct{} // closed when the link goes down

	mu      sync.Mutex
	adopted bool
	status  chan string // node status messages seen before adoption
}

func newLink(onLost func(error)) *link {
	return &link{
		onLost: onLost,
		lost:   make(chan struct{}),
		status: make(chan string, 8),
	}
}

func (l *link) isDown() bool {
	select {
	case <-l.lost:
		return true
	default:
		return false
	}
}

// fail marks the link down and reports err, once.
func (l *link) fail(err error) {
	l.once.Do(func() {
		close(l.lost)
		if l.onLost != nil {
			l.onLost(err)
		}
	})
}

// close marks the link down without reporting and disconnects paho.
func (l *link) close() {
	l.once.Do(func() {
		close(l.lost)
	})
	if l.conn != nil {
		l.conn.Disconnect(defaultDisconnectQuiesce)
	}
}

func (l *link) handleStatus(status string) {
	l.mu.Lock()
	adopted := l.adopted
	if !adopted {
		select {
		case l.status <- status:
		default:
		}
	}
	l.mu.Unlock()

	if adopted && status == statusOffline {
		l.fail(ErrNodeOffline)
	}
}

// waitOnline blocks until the node publishes its online status.
func (l *link) waitOnline(ctx context.Context) error {
	for {
		select {
		case status := <-l.status:
			switch status {
			case statusOnline:
				return nil
			case statusOffline:
				return ErrNodeOffline
			}
		case <-l.lost:
			return ErrConnectionLost
		case <-ctx.Done():
			return fmt.Errorf("waiting for node status: %w", ctx.Err())
		}
	}
}

// adopt switches status handling to loss detection. Statuses queued after
// waitOnline returned are replayed.
func (l *link) adopt() {
	l.mu.Lock()
	l.adopted = true
	var offline bool
	for drained := false; !drained; {
		select {
		case status := <-l.status:
			offline = status == statusOffline
		default:
			drained = true
		}
	}
	l.mu.Unlock()

	if offline {
		l.fail(ErrNodeOffline)
	}
}

package esphome

import (
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakeMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return m.retained }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// fakeBroker is a paho client backed by an in-memory broker. Subscribing
// delivers matching retained messages asynchronously, as a broker would.
type fakeBroker struct {
	mu           sync.Mutex
	opts         *pahomqtt.ClientOptions
	connectErr   error
	connectBlock bool
	connected    bool
	retained     map[string][]byte
	subs         map[string]pahomqtt.MessageHandler
	published    []fakeMessage
	publishErr   error
	publishBlock bool
	disconnects  int
	unsubscribed []string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		retained: make(map[string][]byte),
		subs:     make(map[string]pahomqtt.MessageHandler),
	}
}

func (b *fakeBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBroker) IsConnectionOpen() bool { return b.IsConnected() }

func (b *fakeBroker) Connect() pahomqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connectBlock {
		return pendingToken()
	}
	if b.connectErr != nil {
		return completedToken(b.connectErr)
	}
	b.connected = true
	return completedToken(nil)
}

func (b *fakeBroker) Disconnect(uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	b.disconnects++
}

func (b *fakeBroker) Publish(topic string, _ byte, retained bool, payload interface{}) pahomqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return completedToken(pahomqtt.ErrNotConnected)
	}
	if b.publishErr != nil {
		return completedToken(b.publishErr)
	}
	if b.publishBlock {
		return pendingToken()
	}
	data, _ := payload.([]byte)
	b.published = append(b.published, fakeMessage{topic: topic, payload: data, retained: retained})
	return completedToken(nil)
}

func (b *fakeBroker) Subscribe(filter string, _ byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[filter] = callback

	var matches []fakeMessage
	for topic, payload := range b.retained {
		if topicMatches(filter, topic) {
			matches = append(matches, fakeMessage{topic: topic, payload: payload, retained: true})
		}
	}
	go func() {
		for _, m := range matches {
			callback(b, m)
		}
	}()
	return completedToken(nil)
}

func (b *fakeBroker) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return completedToken(nil)
}

func (b *fakeBroker) Unsubscribe(topics ...string) pahomqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics {
		delete(b.subs, t)
		b.unsubscribed = append(b.unsubscribed, t)
	}
	return completedToken(nil)
}

func (b *fakeBroker) AddRoute(string, pahomqtt.MessageHandler) {}

func (b *fakeBroker) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.NewOptionsReader(b.opts)
}

// retain stores a retained message for later subscribers.
func (b *fakeBroker) retain(topic, payload string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retained[topic] = []byte(payload)
}

// emit delivers a live message to the current subscribers.
func (b *fakeBroker) emit(topic, payload string) {
	b.mu.Lock()
	var handlers []pahomqtt.MessageHandler
	for filter, h := range b.subs {
		if topicMatches(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(b, fakeMessage{topic: topic, payload: []byte(payload)})
	}
}

// dropConnection simulates the broker link failing.
func (b *fakeBroker) dropConnection(err error) {
	b.mu.Lock()
	b.connected = false
	onLost := b.opts.OnConnectionLost
	b.mu.Unlock()
	onLost(b, err)
}

func (b *fakeBroker) publishedMessages() []fakeMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]fakeMessage(nil), b.published...)
}

func (b *fakeBroker) disconnectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disconnects
}

func (b *fakeBroker) hasSubscription(filter string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subs[filter]
	return ok
}

func topicMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, f := range fp {
		if f == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if f != "+" && f != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}

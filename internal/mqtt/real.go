package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/desk-clock/internal/logic"
)

// bufferCapacity bounds the messages kept while the broker is unreachable.
const bufferCapacity = 100

const publishTimeout = 5 * time.Second

var errPublishTimeout = errors.New("timeout")

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are kept in a ring buffer and replayed, oldest first, on reconnect.
type RealPublisher struct {
	client paho.Client
	topic  string

	// sendMu serializes broker writes, including replays from onConnect.
	sendMu sync.Mutex

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // at least one successful connection
}

// NewRealPublisher creates a publisher for the given broker. It returns at once;
// the client keeps retrying in the background until the broker is reachable.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{
		topic: Topic,
		buf:   newRingBuffer(bufferCapacity),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// onConnect runs on its own goroutine for every (re)connection.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	n := p.buf.len()
	p.mu.Unlock()

	log.Printf("mqtt: connected, replaying %d buffered messages", n)
	p.sendMu.Lock()
	p.flush()
	p.sendMu.Unlock()

	if reconnect {
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"}); err != nil {
			log.Printf("mqtt: publish reconnected: %v", err)
		}
	}
}

// send publishes msg or buffers it when the connection is down. Anything
// still buffered goes out first so the broker sees messages in publish order.
func (p *RealPublisher) send(msg bufferedMsg) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if !p.client.IsConnectionOpen() || !p.flush() {
		p.push(msg)
		return nil
	}

	err := p.write(msg)
	if errors.Is(err, errPublishTimeout) {
		p.push(msg)
	}
	return err
}

// flush replays the buffer oldest first. It returns false, with the unsent
// tail pushed back, as soon as a write times out. Callers hold sendMu.
func (p *RealPublisher) flush() bool {
	p.mu.Lock()
	pending := p.buf.drainAll()
	p.mu.Unlock()

	for i, msg := range pending {
		err := p.write(msg)
		if errors.Is(err, errPublishTimeout) {
			p.mu.Lock()
			for _, m := range pending[i:] {
				p.buf.push(m)
			}
			p.mu.Unlock()
			return false
		}
		if err != nil {
			log.Printf("mqtt: replay rejected, dropping message: %v", err)
		}
	}
	return true
}

func (p *RealPublisher) push(msg bufferedMsg) {
	p.mu.Lock()
	p.buf.push(msg)
	p.mu.Unlock()
}

func (p *RealPublisher) write(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: %w", msg.topic, errPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// Publish sends a clock event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(bufferedMsg{topic: p.topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) - lifecycle events should not be lost
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

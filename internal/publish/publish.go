package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/muurk/apled/internal/actuator"
	"github.com/muurk/apled/internal/logging"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultKeepAlive      = 30 * time.Second
	maxReconnectInterval  = time.Minute

	// disconnectQuiesce is in milliseconds.
	disconnectQuiesce = 500

	maxQoS = 2

	sourceConnect = "connect"
)

var (
	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrInvalidQoS is returned for QoS levels above 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
)

// Config holds broker connection settings.
type Config struct {
	Broker      string // tcp://host:1883 or ssl://host:8883
	ClientID    string
	TopicPrefix string
	QoS         byte
	Username    string
	Password    string
}

// StateTopic is where state messages are retained.
func (c Config) StateTopic() string { return c.TopicPrefix + "/state" }

// StatusTopic carries online/offline presence.
func (c Config) StatusTopic() string { return c.TopicPrefix + "/status" }

// StateMessage is the payload published on the state topic.
type StateMessage struct {
	LEDState  bool   `json:"led_state"`
	Seq       uint64 `json:"seq"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// StatusMessage is the payload published on the status topic.
type StatusMessage struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// broker is the part of pahomqtt.Client the publisher needs.
type broker interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// connector is a broker that still has to be dialed.
type connector interface {
	broker
	Connect() pahomqtt.Token
}

// newClient is replaced in tests.
var newClient = func(opts *pahomqtt.ClientOptions) connector {
	return pahomqtt.NewClient(opts)
}

// Publisher publishes every change of one actuator State.
type Publisher struct {
	cfg    Config
	state  *actuator.State
	client broker
	now    func() time.Time

	// mu orders publishes; lastSeq drops changes that arrive late.
	mu      sync.Mutex
	lastSeq uint64
	closed  bool

	pending sync.WaitGroup
}

// Connect dials the broker, publishes the online status and current state,
// and subscribes to state. Reconnects republish both.
func Connect(cfg Config, state *actuator.State) (*Publisher, error) {
	if cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}

	p := newPublisher(cfg, state, nil)

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		logging.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
		p.announce()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logging.Warn("MQTT connection lost", zap.Error(err))
	})

	client := newClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		// Stops the connect goroutine still retrying in the background.
		client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p.mu.Lock()
	p.client = client
	p.mu.Unlock()

	state.Subscribe(p.Observe)
	p.announce()
	return p, nil
}

func newPublisher(cfg Config, state *actuator.State, client broker) *Publisher {
	return &Publisher{
		cfg:    cfg,
		state:  state,
		client: client,
		now:    time.Now,
	}
}

func buildClientOptions(cfg Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(maxReconnectInterval)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	will, _ := json.Marshal(StatusMessage{
		Status:    "offline",
		ClientID:  cfg.ClientID,
		Reason:    "unexpected_disconnect",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	opts.SetBinaryWill(cfg.StatusTopic(), will, cfg.QoS, true)
	return opts
}

// announce publishes the online status and the current state. It runs on
// first connect and on every reconnect.
func (p *Publisher) announce() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil || p.closed {
		return
	}

	p.publishLocked(p.cfg.StatusTopic(), StatusMessage{
		Status:    "online",
		ClientID:  p.cfg.ClientID,
		Timestamp: p.timestamp(),
	})

	engaged, seq := p.state.Snapshot()
	if seq < p.lastSeq {
		// A newer change is already retained.
		return
	}
	p.lastSeq = seq
	p.publishLocked(p.cfg.StateTopic(), StateMessage{
		LEDState:  engaged,
		Seq:       seq,
		Source:    sourceConnect,
		Timestamp: p.timestamp(),
	})
}

// Observe publishes c unless a newer change was already published. It
// satisfies actuator.Observer and never blocks on the broker.
func (p *Publisher) Observe(c actuator.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.client == nil {
		return
	}
	if c.Seq <= p.lastSeq {
		logging.Debug("Dropping stale state change",
			zap.Uint64("seq", c.Seq),
			zap.Uint64("last_seq", p.lastSeq),
		)
		return
	}
	p.lastSeq = c.Seq

	p.publishLocked(p.cfg.StateTopic(), StateMessage{
		LEDState:  c.Engaged,
		Seq:       c.Seq,
		Source:    string(c.Source),
		Timestamp: p.timestamp(),
	})
}

// publishLocked enqueues a retained message and waits for the ack in the
// background. p.mu must be held so the broker sees messages in order.
func (p *Publisher) publishLocked(topic string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logging.Error("Failed to encode MQTT message", zap.String("topic", topic), zap.Error(err))
		return
	}

	token := p.client.Publish(topic, p.cfg.QoS, true, payload)
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		if !token.WaitTimeout(defaultPublishTimeout) {
			logging.Warn("MQTT publish timed out", zap.String("topic", topic))
			return
		}
		if err := token.Error(); err != nil {
			logging.Warn("MQTT publish failed", zap.String("topic", topic), zap.Error(err))
		}
	}()
}

func (p *Publisher) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}

// Close publishes a graceful offline status, waits for outstanding
// publishes and disconnects. Later changes are ignored.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed || p.client == nil {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	client := p.client

	var token pahomqtt.Token
	if client.IsConnected() {
		payload, _ := json.Marshal(StatusMessage{
			Status:    "offline",
			ClientID:  p.cfg.ClientID,
			Reason:    "graceful_shutdown",
			Timestamp: p.timestamp(),
		})
		token = client.Publish(p.cfg.StatusTopic(), p.cfg.QoS, true, payload)
	}
	p.mu.Unlock()

	if token != nil {
		token.WaitTimeout(defaultPublishTimeout)
	}
	p.pending.Wait()
	client.Disconnect(disconnectQuiesce)
	return nil
}

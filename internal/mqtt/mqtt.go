// Package mqtt publishes dataset load events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/config"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/types"
)

var (
	ErrNotConnected = errors.New("mqtt client not connected")
	ErrStopped      = errors.New("mqtt publisher stopped")
)

const (
	qos            = byte(1)
	publishTimeout = 5 * time.Second
)

// LoadEvent is the retained message describing the most recent load.
type LoadEvent struct {
	Event       string            `json:"event"`
	PublishedAt time.Time         `json:"publishedAt"`
	Attempt     types.LoadAttempt `json:"attempt"`
}

type Publisher struct {
	client    mqtt.Client
	topic     string
	broker    string
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) (*Publisher, error) {
	if !cfg.MQTTEnabled() {
		return nil, errors.New("mqtt publisher: MQTT_BROKER is not set")
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topic:  cfg.MQTTTopic,
		broker: fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort),
		logger: logger.With("component", "mqtt"),
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.broker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		p.logger.Info("mqtt connected", "broker", p.broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p, nil
}

// Connect waits for the initial connection. It gives up when ctx is done or
// Disconnect is called; paho keeps retrying in the background until then.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return ErrStopped
	default:
	}
	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return ErrStopped
		default:
		}
	}
}

// PublishLoadAttempt publishes a as a retained message so late subscribers
// still see the latest load.
func (p *Publisher) PublishLoadAttempt(a types.LoadAttempt) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(LoadEvent{
		Event:       "dataset.load",
		PublishedAt: time.Now().UTC(),
		Attempt:     a,
	})
	if err != nil {
		return fmt.Errorf("marshal load event: %w", err)
	}

	token := p.client.Publish(p.topic, qos, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish load event: %w", err)
	}

	p.logger.Debug("published load event", "topic", p.topic, "attempt_id", a.ID, "status", a.Status)
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect is idempotent. Connect returns ErrStopped afterwards.
func (p *Publisher) Disconnect() {
	first := false
	p.stopOnce.Do(func() {
		close(p.stopCh)
		first = true
	})
	if !first {
		return
	}
	p.client.Disconnect(250)
	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

const (
	defaultPort    = 8883
	defaultQoS     = 1
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Config holds AWS IoT device settings. Certificates are base64 encoded PEM.
type Config struct {
	Endpoint     string
	Port         int
	ClientID     string
	PrivateKey   string
	RootCA       string
	Certificate  string
	RequestTopic string
	ReplyTopic   string
	QoS          byte
}

// SignedURLChannel implements port.SignedURLChannel over AWS IoT Core MQTT
type SignedURLChannel struct {
	client paho.Client
	config Config
	logger *logger.Logger

	mu      sync.RWMutex
	handler func(urls []string)
}

// NewSignedURLChannel connects to the broker using the device certificate
func NewSignedURLChannel(cfg Config, log *logger.Logger) (*SignedURLChannel, error) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.QoS == 0 {
		cfg.QoS = defaultQoS
	}

	tlsConfig, err := NewTLSConfig(cfg.Certificate, cfg.PrivateKey, cfg.RootCA)
	if err != nil {
		return nil, err
	}

	ch := &SignedURLChannel{
		config: cfg,
		logger: log.With("component", "mqtt", "client_id", cfg.ClientID),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(BrokerURL(cfg.Endpoint, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetTLSConfig(tlsConfig)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	// подписка восстанавливается после каждого переподключения
	opts.OnConnect = func(c paho.Client) {
		ch.logger.Info("MQTT connection established", "endpoint", cfg.Endpoint)
		if ch.currentHandler() != nil {
			token := c.Subscribe(cfg.ReplyTopic, cfg.QoS, ch.onMessage)
			go ch.logTokenError(token, "Failed to resubscribe to signed URL responses")
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		ch.logger.Warn("MQTT connection lost, will auto-reconnect", "error", err.Error())
	}

	ch.client = paho.NewClient(opts)

	token := ch.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	return ch, nil
}

// BrokerURL address of the AWS IoT data endpoint
func BrokerURL(endpoint string, port int) string {
	return fmt.Sprintf("ssl://%s:%d", endpoint, port)
}

func (c *SignedURLChannel) RequestSignedURLs(ctx context.Context, request dto.SignedURLRequest) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal signed URL request: %w", err)
	}

	token := c.client.Publish(c.config.RequestTopic, c.config.QoS, false, payload)
	if err := waitToken(ctx, token, publishTimeout); err != nil {
		return fmt.Errorf("publish to %s failed: %w", c.config.RequestTopic, err)
	}

	c.logger.Debug("Signed URL request published", "topic", c.config.RequestTopic, "size", len(payload))
	return nil
}

func (c *SignedURLChannel) Subscribe(ctx context.Context, handler func(urls []string)) error {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()

	token := c.client.Subscribe(c.config.ReplyTopic, c.config.QoS, c.onMessage)
	if err := waitToken(ctx, token, connectTimeout); err != nil {
		return fmt.Errorf("subscribe to %s failed: %w", c.config.ReplyTopic, err)
	}

	c.logger.Info("Subscribed to signed URL responses", "topic", c.config.ReplyTopic, "qos", c.config.QoS)
	return nil
}

// Connected сообщает, есть ли сейчас соединение с брокером
func (c *SignedURLChannel) Connected() bool {
	return c.client != nil && c.client.IsConnected()
}

func (c *SignedURLChannel) ReplyTo() string {
	return c.config.ReplyTopic
}

func (c *SignedURLChannel) onMessage(_ paho.Client, msg paho.Message) {
	urls, err := dto.DecodeSignedURLResponse(msg.Payload())
	if err != nil {
		c.logger.Error("Failed to parse signed URL response", err, "topic", msg.Topic())
		return
	}

	if handler := c.currentHandler(); handler != nil {
		handler(urls)
	}
}

func (c *SignedURLChannel) currentHandler() func([]string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

func (c *SignedURLChannel) logTokenError(token paho.Token, msg string) {
	if !token.WaitTimeout(connectTimeout) {
		c.logger.Warn(msg, "error", "timeout")
		return
	}
	if err := token.Error(); err != nil {
		c.logger.Error(msg, err)
	}
}

// Close unsubscribes and disconnects with a 250ms grace period
func (c *SignedURLChannel) Close() error {
	if c.client == nil || !c.client.IsConnected() {
		return nil
	}

	token := c.client.Unsubscribe(c.config.ReplyTopic)
	token.WaitTimeout(time.Second)
	c.client.Disconnect(250)

	c.logger.Info("MQTT disconnected")
	return nil
}

func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timeout after %s", timeout)
	}
}

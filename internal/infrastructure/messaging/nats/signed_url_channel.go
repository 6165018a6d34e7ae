package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

// SignedURLChannel implements port.SignedURLChannel over core NATS publish/subscribe.
// Used instead of AWS IoT when the issuer runs as cmd/signed-url-issuer.
type SignedURLChannel struct {
	nc             *nats.Conn
	requestSubject string
	replySubject   string
	logger         *logger.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewSignedURLChannel connects to NATS. Topics are given in MQTT form and mapped to subjects.
func NewSignedURLChannel(natsURL, clientID, requestTopic, replyTopic string, log *logger.Logger) (*SignedURLChannel, error) {
	nc, err := Connect(natsURL, clientID, log)
	if err != nil {
		return nil, err
	}
	return newSignedURLChannel(nc, requestTopic, replyTopic, log), nil
}

func newSignedURLChannel(nc *nats.Conn, requestTopic, replyTopic string, log *logger.Logger) *SignedURLChannel {
	return &SignedURLChannel{
		nc:             nc,
		requestSubject: SubjectFromTopic(requestTopic),
		replySubject:   SubjectFromTopic(replyTopic),
		logger:         log.With("component", "nats"),
	}
}

func (c *SignedURLChannel) RequestSignedURLs(ctx context.Context, request dto.SignedURLRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal signed URL request: %w", err)
	}

	if err := c.nc.Publish(c.requestSubject, payload); err != nil {
		return fmt.Errorf("publish to %s failed: %w", c.requestSubject, err)
	}

	c.logger.Debug("Signed URL request published", "subject", c.requestSubject, "size", len(payload))
	return nil
}

func (c *SignedURLChannel) Subscribe(ctx context.Context, handler func(urls []string)) error {
	sub, err := c.nc.Subscribe(c.replySubject, func(msg *nats.Msg) {
		urls, err := dto.DecodeSignedURLResponse(msg.Data)
		if err != nil {
			c.logger.Error("Failed to parse signed URL response", err, "subject", msg.Subject)
			return
		}
		handler(urls)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s failed: %w", c.replySubject, err)
	}

	if err := c.nc.FlushWithContext(ctx); err != nil {
		sub.Unsubscribe()
		return fmt.Errorf("subscribe to %s failed: %w", c.replySubject, err)
	}

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	c.logger.Info("Subscribed to signed URL responses", "subject", c.replySubject)
	return nil
}

// Connected reports whether the NATS connection is currently up
func (c *SignedURLChannel) Connected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

func (c *SignedURLChannel) ReplyTo() string {
	return c.replySubject
}

func (c *SignedURLChannel) Close() error {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe", "error", err.Error())
		}
	}
	c.nc.Close()
	return nil
}

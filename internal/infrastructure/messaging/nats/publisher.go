package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dreschagin/motion-camera/pkg/logger"
)

const drainTimeout = 5 * time.Second

// EventPublisher implements port.EventPublisher for NATS JetStream
type EventPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewEventPublisher connects to NATS and makes sure the stream for subjects exists
func NewEventPublisher(natsURL, stream string, subjects []string, log *logger.Logger) (*EventPublisher, error) {
	nc, err := Connect(natsURL, "motion-camera-events", log)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	if stream != "" {
		if _, err := js.StreamInfo(stream); err != nil {
			_, err = js.AddStream(&nats.StreamConfig{
				Name:     stream,
				Subjects: subjects,
				MaxAge:   7 * 24 * time.Hour,
			})
			if err != nil {
				nc.Close()
				return nil, fmt.Errorf("failed to create stream %s: %w", stream, err)
			}
			log.Info("JetStream stream created", "stream", stream, "subjects", subjects)
		}
	}

	return &EventPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// PublishEvent publishes an event to JetStream (async)
func (p *EventPublisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.logger.Error("Failed to publish event", err, "subject", subject)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published", "subject", subject, "size", len(data))
	return nil
}

// Close waits for outstanding acks and closes the connection
func (p *EventPublisher) Close() error {
	if p.nc == nil {
		return nil
	}

	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(drainTimeout):
		p.logger.Warn("Timed out waiting for pending event acks", "pending", p.js.PublishAsyncPending())
	}

	p.logger.Info("Closing NATS connection")
	p.nc.Close()
	return nil
}

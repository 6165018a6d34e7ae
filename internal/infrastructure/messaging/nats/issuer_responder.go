package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/application/port"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

const (
	maxURLsPerRequest = 100
	issueTimeout      = 10 * time.Second
)

// IssuerResponder answers bulk signed URL requests with a JSON array published on request.replyTo
type IssuerResponder struct {
	nc      *nats.Conn
	subject string
	issuer  port.SignedURLIssuer
	logger  *logger.Logger
	sub     *nats.Subscription
}

func NewIssuerResponder(nc *nats.Conn, requestTopic string, issuer port.SignedURLIssuer, log *logger.Logger) *IssuerResponder {
	return &IssuerResponder{
		nc:      nc,
		subject: SubjectFromTopic(requestTopic),
		issuer:  issuer,
		logger:  log,
	}
}

// Start subscribes to the request subject within a queue group so several issuers can share load
func (r *IssuerResponder) Start() error {
	sub, err := r.nc.QueueSubscribe(r.subject, "signed-url-issuer", r.handle)
	if err != nil {
		return fmt.Errorf("subscribe to %s failed: %w", r.subject, err)
	}
	r.sub = sub

	r.logger.Info("Signed URL issuer listening", "subject", r.subject)
	return nil
}

func (r *IssuerResponder) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), issueTimeout)
	defer cancel()

	if err := r.respond(ctx, msg.Data); err != nil {
		r.logger.Error("Failed to answer signed URL request", err, "subject", msg.Subject)
	}
}

func (r *IssuerResponder) respond(ctx context.Context, data []byte) error {
	var request dto.SignedURLRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if request.ReplyTo == "" || request.Bucket == "" {
		return fmt.Errorf("request must carry bucket and replyTo")
	}

	count := request.URLCount
	if count <= 0 {
		count = 1
	}
	if count > maxURLsPerRequest {
		count = maxURLsPerRequest
	}

	urls, err := r.issuer.IssueUploadURLs(ctx, request.Bucket, count)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := r.nc.Publish(request.ReplyTo, payload); err != nil {
		return fmt.Errorf("publish to %s failed: %w", request.ReplyTo, err)
	}

	r.logger.Info("Signed URLs issued", "count", len(urls), "bucket", request.Bucket, "reply_to", request.ReplyTo)
	return nil
}

func (r *IssuerResponder) Stop() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Drain()
}

package port

import (
	"context"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// MetricsPublisher defines the interface for publishing device and pipeline metrics
// to an external observability platform.
type MetricsPublisher interface {
	// PublishBatch buffers metric points for batched delivery.
	PublishBatch(ctx context.Context, points []dto.MetricPoint) error

	// Flush forces immediate publication of any buffered points.
	Flush(ctx context.Context) error
}

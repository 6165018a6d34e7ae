package port

import (
	"context"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// DeviceMetricsCollector собирает метрики устройства (Port)
// Реализация в Infrastructure слое (gopsutil)
type DeviceMetricsCollector interface {
	// CollectAll собирает CPU, память и заполненность каталогов съемки
	CollectAll(ctx context.Context) ([]dto.MetricPoint, error)
}

package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// DiskCollector собирает заполненность разделов с каталогами съемки.
// Переполненная карта памяти останавливает камеру, поэтому это главная метрика устройства.
type DiskCollector struct {
	paths map[string]string
}

// NewDiskCollector принимает имя каталога и путь к нему
func NewDiskCollector(paths map[string]string) *DiskCollector {
	return &DiskCollector{paths: paths}
}

// Collect собирает Disk метрики
func (c *DiskCollector) Collect(ctx context.Context) ([]dto.MetricPoint, error) {
	metrics := make([]dto.MetricPoint, 0, len(c.paths)*2)
	var firstErr error

	for name, path := range c.paths {
		usage, err := disk.UsageWithContext(ctx, path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		dims := map[string]string{"Directory": name}
		metrics = append(metrics,
			dto.MetricPoint{Name: "disk_usage", Value: usage.UsedPercent, Unit: "%", Dimensions: dims},
			dto.MetricPoint{Name: "disk_free", Value: float64(usage.Free) / 1024 / 1024, Unit: "MB", Dimensions: dims},
		)
	}

	if len(metrics) == 0 {
		return nil, firstErr
	}
	return metrics, nil
}

package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

type collectFunc func(context.Context) ([]dto.MetricPoint, error)

// DeviceMetricsCollector собирает метрики устройства
// Реализует интерфейс port.DeviceMetricsCollector
type DeviceMetricsCollector struct {
	collectors []collectFunc
	now        func() time.Time
}

// NewDeviceMetricsCollector создает collector; dirs задает каталоги, заполненность которых отслеживается
func NewDeviceMetricsCollector(dirs map[string]string, cpuSample time.Duration) *DeviceMetricsCollector {
	return &DeviceMetricsCollector{
		collectors: []collectFunc{
			NewCPUCollector(cpuSample).Collect,
			NewMemoryCollector().Collect,
			NewDiskCollector(dirs).Collect,
			NewNetworkCollector().Collect,
		},
		now: time.Now,
	}
}

// CollectAll собирает все доступные метрики параллельно.
// Ошибка возвращается, только если ни один collector не дал данных.
func (c *DeviceMetricsCollector) CollectAll(ctx context.Context) ([]dto.MetricPoint, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	allMetrics := make([]dto.MetricPoint, 0)
	var errs []error

	collect := func(collector collectFunc) {
		defer wg.Done()
		metrics, err := collector(ctx)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
		allMetrics = append(allMetrics, metrics...)
	}

	wg.Add(len(c.collectors))
	for _, collector := range c.collectors {
		go collect(collector)
	}
	wg.Wait()

	if len(allMetrics) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	collectedAt := c.now()
	for i := range allMetrics {
		if allMetrics[i].Timestamp.IsZero() {
			allMetrics[i].Timestamp = collectedAt
		}
	}

	return allMetrics, nil
}

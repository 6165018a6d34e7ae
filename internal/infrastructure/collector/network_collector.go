package collector

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// NetworkCollector считает скорость отправки, по ней видно, успевает ли канал за выгрузками
type NetworkCollector struct {
	mu            sync.Mutex
	lastStat      *net.IOCountersStat
	lastCheckTime time.Time
}

func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{}
}

// Collect собирает Network метрики. Первый вызов только запоминает счетчики.
func (c *NetworkCollector) Collect(ctx context.Context) ([]dto.MetricPoint, error) {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil || len(stats) == 0 {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.observe(stats[0], time.Now()), nil
}

func (c *NetworkCollector) observe(current net.IOCountersStat, now time.Time) []dto.MetricPoint {
	var metrics []dto.MetricPoint

	if c.lastStat != nil {
		duration := now.Sub(c.lastCheckTime).Seconds()
		// счетчики сбрасываются при перезапуске интерфейса
		if duration > 0 && current.BytesSent >= c.lastStat.BytesSent && current.BytesRecv >= c.lastStat.BytesRecv {
			metrics = append(metrics,
				dto.MetricPoint{Name: "network_sent", Value: float64(current.BytesSent-c.lastStat.BytesSent) / duration / 1024, Unit: "KB/s"},
				dto.MetricPoint{Name: "network_recv", Value: float64(current.BytesRecv-c.lastStat.BytesRecv) / duration / 1024, Unit: "KB/s"},
			)
		}
	}

	c.lastStat = &current
	c.lastCheckTime = now

	return metrics
}

package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// MemoryCollector собирает метрики памяти
type MemoryCollector struct{}

func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Collect собирает Memory метрики
func (c *MemoryCollector) Collect(ctx context.Context) ([]dto.MetricPoint, error) {
	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return []dto.MetricPoint{
		{Name: "memory_usage", Value: vmStat.UsedPercent, Unit: "%"},
		{Name: "memory_available", Value: float64(vmStat.Available) / 1024 / 1024, Unit: "MB"},
	}, nil
}

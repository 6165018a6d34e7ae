package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// CPUCollector собирает загрузку CPU
type CPUCollector struct {
	sample time.Duration
}

// NewCPUCollector создает CPU collector с окном замера sample
func NewCPUCollector(sample time.Duration) *CPUCollector {
	if sample <= 0 {
		sample = time.Second
	}
	return &CPUCollector{sample: sample}
}

// Collect собирает CPU метрики
func (c *CPUCollector) Collect(ctx context.Context) ([]dto.MetricPoint, error) {
	percentages, err := cpu.PercentWithContext(ctx, c.sample, false)
	if err != nil {
		return nil, err
	}
	if len(percentages) == 0 {
		return nil, nil
	}

	counts, _ := cpu.CountsWithContext(ctx, true)

	return []dto.MetricPoint{{
		Name:       "cpu_usage",
		Value:      percentages[0],
		Unit:       "%",
		Dimensions: map[string]string{"Cores": strconv.Itoa(counts)},
	}}, nil
}

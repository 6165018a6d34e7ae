package valueobject

import (
	"errors"
	"strings"
)

// MetricType представляет тип метрики (Value Object)
type MetricType string

const (
	CPU      MetricType = "cpu"
	Memory   MetricType = "memory"
	Disk     MetricType = "disk"
	Network  MetricType = "network"
	Pipeline MetricType = "pipeline"
)

// MetricTypeOf определяет тип по префиксу имени метрики (cpu_usage -> cpu).
// Имена без известного префикса относятся к метрикам конвейера.
func MetricTypeOf(name string) MetricType {
	prefix, _, _ := strings.Cut(name, "_")
	switch mt := MetricType(prefix); mt {
	case CPU, Memory, Disk, Network:
		return mt
	default:
		return Pipeline
	}
}

// Validate проверяет валидность типа метрики
func (mt MetricType) Validate() error {
	switch mt {
	case CPU, Memory, Disk, Network, Pipeline:
		return nil
	default:
		return errors.New("invalid metric type")
	}
}

// String возвращает строковое представление типа метрики
func (mt MetricType) String() string {
	return string(mt)
}

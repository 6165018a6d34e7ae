package service

import (
	"errors"
	"math"
	"time"

	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
)

// MetricValidator отсеивает точки метрик, которые внешняя система наблюдения отвергнет (Domain Service)
type MetricValidator struct {
	now func() time.Time
}

// NewMetricValidator создает новый MetricValidator
func NewMetricValidator() *MetricValidator {
	return &MetricValidator{now: time.Now}
}

// Validate выполняет полную валидацию точки метрики
func (v *MetricValidator) Validate(name string, value float64, unit string, collectedAt time.Time) error {
	if name == "" {
		return errors.New("metric name is required")
	}

	// NaN и бесконечность CloudWatch не принимает
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.New("metric value must be finite")
	}
	if value < 0 {
		return errors.New("metric value cannot be negative")
	}

	// Проверка, что метрика не из будущего (допуск на расхождение часов)
	if !collectedAt.IsZero() && collectedAt.After(v.now().Add(time.Minute)) {
		return errors.New("collected_at cannot be in the future")
	}

	if err := v.ValidateUnit(valueobject.MetricTypeOf(name), unit); err != nil {
		return err
	}

	if !v.IsReasonable(valueobject.MetricTypeOf(name), value, unit) {
		return errors.New("metric value out of range")
	}

	return nil
}

// ValidateUnit проверяет, соответствует ли единица измерения типу метрики
func (v *MetricValidator) ValidateUnit(metricType valueobject.MetricType, unit string) error {
	validUnits := map[valueobject.MetricType][]string{
		valueobject.CPU:      {"%"},
		valueobject.Memory:   {"%", "MB", "GB", "bytes"},
		valueobject.Disk:     {"%", "MB", "GB", "bytes"},
		valueobject.Network:  {"KB/s", "MB/s", "bytes/s"},
		valueobject.Pipeline: {"count", "ms", "s", "bytes"},
	}

	allowedUnits, exists := validUnits[metricType]
	if !exists {
		return errors.New("unknown metric type")
	}

	for _, allowedUnit := range allowedUnits {
		if unit == allowedUnit {
			return nil
		}
	}

	return errors.New("invalid unit for metric type")
}

// IsReasonable проверяет, находится ли значение метрики в разумных пределах
func (v *MetricValidator) IsReasonable(metricType valueobject.MetricType, value float64, unit string) bool {
	switch metricType {
	case valueobject.CPU, valueobject.Memory, valueobject.Disk:
		// Процентные значения должны быть от 0 до 100
		if unit == "%" {
			return value >= 0 && value <= 100
		}
		return true

	case valueobject.Network:
		// Камера на Wi-Fi не отдает больше 1 GB/s
		if unit == "MB/s" {
			return value < 1000
		}
		return true

	default:
		return true
	}
}

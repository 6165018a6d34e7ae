package service

import (
	"math"
	"testing"
	"time"

	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
)

func TestMetricTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want valueobject.MetricType
	}{
		{"cpu_usage", valueobject.CPU},
		{"memory_available", valueobject.Memory},
		{"disk_free", valueobject.Disk},
		{"network_sent", valueobject.Network},
		{"upload_backlog", valueobject.Pipeline},
		{"uploads_failed", valueobject.Pipeline},
	}

	for _, tt := range tests {
		if got := valueobject.MetricTypeOf(tt.name); got != tt.want {
			t.Errorf("MetricTypeOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestMetricValidator_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := NewMetricValidator()
	v.now = func() time.Time { return now }

	tests := []struct {
		name    string
		metric  string
		value   float64
		unit    string
		at      time.Time
		wantErr bool
	}{
		{"cpu percent", "cpu_usage", 42, "%", now, false},
		{"pipeline count", "upload_backlog", 7, "count", now, false},
		{"zero timestamp allowed", "disk_free", 512, "MB", time.Time{}, false},
		{"empty name", "", 1, "count", now, true},
		{"NaN", "cpu_usage", math.NaN(), "%", now, true},
		{"infinite", "network_sent", math.Inf(1), "KB/s", now, true},
		{"negative", "uploads_failed", -1, "count", now, true},
		{"from the future", "cpu_usage", 1, "%", now.Add(time.Hour), true},
		{"wrong unit", "cpu_usage", 1, "MB", now, true},
		{"percent above 100", "disk_usage", 101, "%", now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.metric, tt.value, tt.unit, tt.at)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

type stubDetection struct{}

func (stubDetection) Backlog() int               { return 3 }
func (stubDetection) Busy() bool                 { return true }
func (stubDetection) Counters() (uint64, uint64) { return 40, 7 }

type stubUploads struct{}

func (stubUploads) Backlog() int               { return 2 }
func (stubUploads) InFlight() int              { return 5 }
func (stubUploads) Counters() (uint64, uint64) { return 6, 1 }

type stubPool struct{}

func (stubPool) Available() int { return 4 }
func (stubPool) Pending() bool  { return true }

type mockCache struct {
	values map[string]interface{}
	err    error
}

func (m *mockCache) Get(context.Context, string, interface{}) error { return nil }

func (m *mockCache) Set(_ context.Context, key string, value interface{}) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mockCache) Delete(context.Context, string) error { return nil }
func (m *mockCache) Close() error                         { return nil }

type mockMetricsPublisher struct {
	points []dto.MetricPoint
}

func (m *mockMetricsPublisher) PublishBatch(_ context.Context, points []dto.MetricPoint) error {
	m.points = append(m.points, points...)
	return nil
}

func (m *mockMetricsPublisher) Flush(context.Context) error { return nil }

type mockCollector struct {
	points []dto.MetricPoint
	err    error
}

func (m *mockCollector) CollectAll(context.Context) ([]dto.MetricPoint, error) {
	return m.points, m.err
}

type mockRecorder struct {
	last  dto.PipelineStatus
	calls int
}

func (m *mockRecorder) RecordStatus(status dto.PipelineStatus) {
	m.last = status
	m.calls++
}

func TestReportStatus_Snapshot(t *testing.T) {
	uc := NewReportStatusUseCase("camera-1", stubDetection{}, stubUploads{}, stubPool{}, nil, nil, nil, nil, logger.New("error"))

	status := uc.Snapshot()
	if status.ClientID != "camera-1" || status.NewImageBacklog != 3 || !status.DetectionBusy {
		t.Fatalf("unexpected detection status %+v", status)
	}
	if status.UploadBacklog != 2 || status.UploadsInFlight != 5 || status.UploadsSucceeded != 6 || status.UploadsFailed != 1 {
		t.Fatalf("unexpected upload status %+v", status)
	}
	if status.SignedURLsAvailable != 4 || !status.ReplenishPending {
		t.Fatalf("unexpected pool status %+v", status)
	}
	if status.ImagesProcessed != 40 || status.MotionDetected != 7 {
		t.Fatalf("unexpected counters %+v", status)
	}
	if status.CollectedAt.IsZero() {
		t.Fatalf("CollectedAt must be set")
	}
}

func TestReportStatus_ExecuteFansOut(t *testing.T) {
	cache := &mockCache{values: make(map[string]interface{})}
	publisher := &mockMetricsPublisher{}
	collector := &mockCollector{points: []dto.MetricPoint{{Name: "cpu_usage", Value: 12.5, Unit: "%"}}}
	recorder := &mockRecorder{}

	uc := NewReportStatusUseCase("camera-1", stubDetection{}, stubUploads{}, stubPool{}, collector, publisher, cache, recorder, logger.New("error"))
	status := uc.Execute(context.Background())

	if recorder.calls != 1 || recorder.last.ClientID != "camera-1" {
		t.Fatalf("recorder not updated")
	}
	if _, ok := cache.values["camera:status:camera-1"]; !ok {
		t.Fatalf("status must be cached under device key, got %v", cache.values)
	}

	want := len(status.ToMetricPoints()) + 1
	if len(publisher.points) != want {
		t.Fatalf("published %d points, want %d", len(publisher.points), want)
	}
	if publisher.points[len(publisher.points)-1].Name != "cpu_usage" {
		t.Fatalf("device metrics must follow pipeline metrics")
	}
}

func TestReportStatus_ToleratesFailures(t *testing.T) {
	cache := &mockCache{values: make(map[string]interface{}), err: errors.New("redis: connection refused")}
	publisher := &mockMetricsPublisher{}
	collector := &mockCollector{err: errors.New("disk: no such file")}

	uc := NewReportStatusUseCase("camera-1", stubDetection{}, stubUploads{}, stubPool{}, collector, publisher, cache, nil, logger.New("error"))
	status := uc.Execute(context.Background())

	if len(publisher.points) != len(status.ToMetricPoints()) {
		t.Fatalf("pipeline metrics must be published even if collection fails")
	}
}

func TestReportStatus_DropsInvalidDevicePoints(t *testing.T) {
	publisher := &mockMetricsPublisher{}
	collector := &mockCollector{points: []dto.MetricPoint{
		{Name: "cpu_usage", Value: 130, Unit: "%"},
		{Name: "disk_free", Value: -5, Unit: "MB"},
		{Name: "network_sent", Value: 40, Unit: "KB/s"},
	}}

	uc := NewReportStatusUseCase("camera-1", stubDetection{}, stubUploads{}, stubPool{}, collector, publisher, nil, nil, logger.New("error"))
	status := uc.Execute(context.Background())

	if len(publisher.points) != len(status.ToMetricPoints())+1 {
		t.Fatalf("published %d points, want only valid ones", len(publisher.points))
	}
	if publisher.points[len(publisher.points)-1].Name != "network_sent" {
		t.Fatalf("unexpected last point %+v", publisher.points[len(publisher.points)-1])
	}
}

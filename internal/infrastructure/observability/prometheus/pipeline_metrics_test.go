package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/application/port"
)

var (
	_ port.PipelineObserver = (*PipelineMetrics)(nil)
	_ port.StatusRecorder   = (*PipelineMetrics)(nil)
)

func TestPipelineMetrics_Observer(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ImageProcessed(true)
	m.ImageProcessed(false)
	m.ImageProcessed(false)
	m.UploadFinished(true, 200*time.Millisecond, 1000)
	m.UploadFinished(false, time.Second, 500)
	m.SignedURLsRequested(10, true)
	m.SignedURLsReceived(10)

	if got := testutil.ToFloat64(m.ImagesProcessed.WithLabelValues("true")); got != 1 {
		t.Fatalf("motion images = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ImagesProcessed.WithLabelValues("false")); got != 2 {
		t.Fatalf("still images = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("failure")); got != 1 {
		t.Fatalf("failed uploads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UploadBytes); got != 1000 {
		t.Fatalf("upload bytes = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(m.SignedURLRequests.WithLabelValues("true")); got != 1 {
		t.Fatalf("forced requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SignedURLsReceivedTotal); got != 10 {
		t.Fatalf("received = %v, want 10", got)
	}
}

func TestPipelineMetrics_RecordStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordStatus(dto.PipelineStatus{
		NewImageBacklog:     3,
		UploadBacklog:       7,
		UploadsInFlight:     5,
		SignedURLsAvailable: 4,
		DetectionBusy:       true,
	})

	if got := testutil.ToFloat64(m.UploadBacklog); got != 7 {
		t.Fatalf("upload backlog = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.DetectionBusy); got != 1 {
		t.Fatalf("detection busy = %v, want 1", got)
	}

	m.RecordStatus(dto.PipelineStatus{})
	if got := testutil.ToFloat64(m.DetectionBusy); got != 0 {
		t.Fatalf("detection busy = %v, want 0", got)
	}
}

func TestPipelineMetrics_Middleware(t *testing.T) {
	m := New(prometheus.NewRegistry())

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for _, path := range []string{"/api/v1/status", "/unknown/path"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/v1/status", http.MethodGet, "418")); got != 1 {
		t.Fatalf("status route requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("other", http.MethodGet, "418")); got != 1 {
		t.Fatalf("other route requests = %v, want 1", got)
	}
}

func TestPipelineMetrics_SignedURLsReceivedRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	var observer port.PipelineObserver = New(registry)

	observer.SignedURLsReceived(3)
	observer.SignedURLsReceived(7)

	count, err := testutil.GatherAndCount(registry, "camera_signed_urls_received_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("series = %d, want 1", count)
	}
	if got := testutil.ToFloat64(observer.(*PipelineMetrics).SignedURLsReceivedTotal); got != 10 {
		t.Fatalf("received = %v, want 10", got)
	}
}

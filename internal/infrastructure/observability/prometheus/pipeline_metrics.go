package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// PipelineMetrics bundles prometheus collectors for the capture pipeline.
// It implements port.PipelineObserver and port.StatusRecorder.
type PipelineMetrics struct {
	ImagesProcessed         *prometheus.CounterVec
	UploadsTotal            *prometheus.CounterVec
	UploadDurationSec       prometheus.Histogram
	UploadBytes             prometheus.Counter
	SignedURLRequests       *prometheus.CounterVec
	SignedURLsReceivedTotal prometheus.Counter
	NewImageBacklog         prometheus.Gauge
	UploadBacklog           prometheus.Gauge
	UploadsInFlight         prometheus.Gauge
	SignedURLsAvailable     prometheus.Gauge
	DetectionBusy           prometheus.Gauge

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
}

func New(registry prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		ImagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camera_images_processed_total",
			Help: "Total number of images compared against the reference frame.",
		}, []string{"motion"}),
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camera_uploads_total",
			Help: "Total number of upload attempts.",
		}, []string{"result"}),
		UploadDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "camera_upload_duration_seconds",
			Help:    "Upload duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camera_upload_bytes_total",
			Help: "Total number of image bytes sent.",
		}),
		SignedURLRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camera_signed_url_requests_total",
			Help: "Total number of signed URL batch requests.",
		}, []string{"forced"}),
		SignedURLsReceivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camera_signed_urls_received_total",
			Help: "Total number of signed URLs received.",
		}),
		NewImageBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camera_new_image_backlog",
			Help: "Images waiting for motion detection.",
		}),
		UploadBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camera_upload_backlog",
			Help: "Images waiting for upload.",
		}),
		UploadsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camera_uploads_in_flight",
			Help: "Uploads currently running.",
		}),
		SignedURLsAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camera_signed_urls_available",
			Help: "Unexpired signed URLs in the pool.",
		}),
		DetectionBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camera_detection_busy",
			Help: "1 while a comparison is running.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camera_http_requests_total",
			Help: "Total number of status API requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camera_http_request_duration_seconds",
			Help:    "Status API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	registry.MustRegister(
		m.ImagesProcessed,
		m.UploadsTotal,
		m.UploadDurationSec,
		m.UploadBytes,
		m.SignedURLRequests,
		m.SignedURLsReceivedTotal,
		m.NewImageBacklog,
		m.UploadBacklog,
		m.UploadsInFlight,
		m.SignedURLsAvailable,
		m.DetectionBusy,
		m.RequestsTotal,
		m.RequestDurationSec,
	)

	return m
}

func (m *PipelineMetrics) ImageProcessed(motion bool) {
	m.ImagesProcessed.WithLabelValues(strconv.FormatBool(motion)).Inc()
}

func (m *PipelineMetrics) UploadFinished(success bool, duration time.Duration, sizeBytes int) {
	result := "failure"
	if success {
		result = "success"
		m.UploadBytes.Add(float64(sizeBytes))
	}
	m.UploadsTotal.WithLabelValues(result).Inc()
	m.UploadDurationSec.Observe(duration.Seconds())
}

func (m *PipelineMetrics) SignedURLsRequested(_ int, forced bool) {
	m.SignedURLRequests.WithLabelValues(strconv.FormatBool(forced)).Inc()
}

func (m *PipelineMetrics) SignedURLsReceived(count int) {
	m.SignedURLsReceivedTotal.Add(float64(count))
}

// RecordStatus updates gauges from a pipeline snapshot.
func (m *PipelineMetrics) RecordStatus(status dto.PipelineStatus) {
	m.NewImageBacklog.Set(float64(status.NewImageBacklog))
	m.UploadBacklog.Set(float64(status.UploadBacklog))
	m.UploadsInFlight.Set(float64(status.UploadsInFlight))
	m.SignedURLsAvailable.Set(float64(status.SignedURLsAvailable))
	if status.DetectionBusy {
		m.DetectionBusy.Set(1)
	} else {
		m.DetectionBusy.Set(0)
	}
}

func (m *PipelineMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

func normalizeRoute(path string) string {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/api/v1/status", "/api/v1/captures":
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

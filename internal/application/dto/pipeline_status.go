package dto

import "time"

// PipelineStatus снимок состояния конвейера камеры
type PipelineStatus struct {
	ClientID            string    `json:"client_id"`
	NewImageBacklog     int       `json:"new_image_backlog"`
	DetectionBusy       bool      `json:"detection_busy"`
	UploadBacklog       int       `json:"upload_backlog"`
	UploadsInFlight     int       `json:"uploads_in_flight"`
	SignedURLsAvailable int       `json:"signed_urls_available"`
	ReplenishPending    bool      `json:"replenish_pending"`
	ImagesProcessed     uint64    `json:"images_processed"`
	MotionDetected      uint64    `json:"motion_detected"`
	UploadsSucceeded    uint64    `json:"uploads_succeeded"`
	UploadsFailed       uint64    `json:"uploads_failed"`
	CollectedAt         time.Time `json:"collected_at"`
}

// ToMetricPoints конвертирует снимок состояния в точки метрик
func (s PipelineStatus) ToMetricPoints() []MetricPoint {
	dims := map[string]string{"ClientId": s.ClientID}
	point := func(name string, value float64) MetricPoint {
		return MetricPoint{Name: name, Value: value, Unit: "count", Dimensions: dims, Timestamp: s.CollectedAt}
	}

	return []MetricPoint{
		point("new_image_backlog", float64(s.NewImageBacklog)),
		point("upload_backlog", float64(s.UploadBacklog)),
		point("uploads_in_flight", float64(s.UploadsInFlight)),
		point("signed_urls_available", float64(s.SignedURLsAvailable)),
		point("images_processed", float64(s.ImagesProcessed)),
		point("motion_detected", float64(s.MotionDetected)),
		point("uploads_succeeded", float64(s.UploadsSucceeded)),
		point("uploads_failed", float64(s.UploadsFailed)),
	}
}

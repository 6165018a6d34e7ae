package usecase

import (
	"context"
	"time"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/application/port"
	"github.com/dreschagin/motion-camera/internal/domain/service"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

type detectionStats interface {
	Backlog() int
	Busy() bool
	Counters() (processed, motion uint64)
}

type uploadStats interface {
	Backlog() int
	InFlight() int
	Counters() (succeeded, failed uint64)
}

type poolStats interface {
	Available() int
	Pending() bool
}

// StatusCacheKey ключ снимка состояния устройства в кэше
func StatusCacheKey(clientID string) string {
	return "camera:status:" + clientID
}

// ReportStatusUseCase собирает состояние конвейера и метрики устройства
// и рассылает их в кэш, метрики и внешнюю систему наблюдения.
// collector, publisher, cache и recorder могут быть nil.
type ReportStatusUseCase struct {
	clientID  string
	detection detectionStats
	uploads   uploadStats
	pool      poolStats
	collector port.DeviceMetricsCollector
	publisher port.MetricsPublisher
	cache     port.Cache
	recorder  port.StatusRecorder
	validator *service.MetricValidator
	logger    *logger.Logger
}

func NewReportStatusUseCase(
	clientID string,
	detection detectionStats,
	uploads uploadStats,
	pool poolStats,
	collector port.DeviceMetricsCollector,
	publisher port.MetricsPublisher,
	cache port.Cache,
	recorder port.StatusRecorder,
	log *logger.Logger,
) *ReportStatusUseCase {
	return &ReportStatusUseCase{
		clientID:  clientID,
		detection: detection,
		uploads:   uploads,
		pool:      pool,
		collector: collector,
		publisher: publisher,
		cache:     cache,
		recorder:  recorder,
		validator: service.NewMetricValidator(),
		logger:    log,
	}
}

// Snapshot текущее состояние конвейера без побочных эффектов
func (uc *ReportStatusUseCase) Snapshot() dto.PipelineStatus {
	processed, motion := uc.detection.Counters()
	succeeded, failed := uc.uploads.Counters()

	return dto.PipelineStatus{
		ClientID:            uc.clientID,
		NewImageBacklog:     uc.detection.Backlog(),
		DetectionBusy:       uc.detection.Busy(),
		UploadBacklog:       uc.uploads.Backlog(),
		UploadsInFlight:     uc.uploads.InFlight(),
		SignedURLsAvailable: uc.pool.Available(),
		ReplenishPending:    uc.pool.Pending(),
		ImagesProcessed:     processed,
		MotionDetected:      motion,
		UploadsSucceeded:    succeeded,
		UploadsFailed:       failed,
		CollectedAt:         time.Now().UTC(),
	}
}

// Execute рассылает снимок состояния. Ошибки отдельных получателей только логируются.
func (uc *ReportStatusUseCase) Execute(ctx context.Context) dto.PipelineStatus {
	status := uc.Snapshot()

	if uc.recorder != nil {
		uc.recorder.RecordStatus(status)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, StatusCacheKey(uc.clientID), status); err != nil {
			uc.logger.Warn("Failed to cache pipeline status", "error", err.Error())
		}
	}

	if uc.publisher != nil {
		points := status.ToMetricPoints()

		if uc.collector != nil {
			devicePoints, err := uc.collector.CollectAll(ctx)
			if err != nil {
				uc.logger.Warn("Failed to collect device metrics", "error", err.Error())
			}
			points = append(points, devicePoints...)
		}
		points = uc.validPoints(points)

		if err := uc.publisher.PublishBatch(ctx, points); err != nil {
			uc.logger.Warn("Failed to publish metrics", "count", len(points), "error", err.Error())
		}
	}

	uc.logger.Debug("Pipeline status",
		"new_backlog", status.NewImageBacklog,
		"upload_backlog", status.UploadBacklog,
		"in_flight", status.UploadsInFlight,
		"urls", status.SignedURLsAvailable,
	)

	return status
}

// validPoints отбрасывает точки, которые не пройдут валидацию во внешней системе
func (uc *ReportStatusUseCase) validPoints(points []dto.MetricPoint) []dto.MetricPoint {
	valid := points[:0]
	for _, point := range points {
		if err := uc.validator.Validate(point.Name, point.Value, point.Unit, point.Timestamp); err != nil {
			uc.logger.Debug("Dropping metric point", "name", point.Name, "value", point.Value, "error", err.Error())
			continue
		}
		valid = append(valid, point)
	}
	return valid
}

package port

import "github.com/dreschagin/motion-camera/internal/application/dto"

// StatusRecorder принимает периодический снимок состояния конвейера (например, gauges Prometheus)
type StatusRecorder interface {
	RecordStatus(status dto.PipelineStatus)
}

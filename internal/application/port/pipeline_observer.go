package port

import "time"

// PipelineObserver получает события конвейера для метрик
type PipelineObserver interface {
	ImageProcessed(motion bool)
	UploadFinished(success bool, duration time.Duration, sizeBytes int)
	SignedURLsRequested(count int, forced bool)
	SignedURLsReceived(count int)
}

// NopPipelineObserver ничего не делает
type NopPipelineObserver struct{}

func (NopPipelineObserver) ImageProcessed(bool)                     {}
func (NopPipelineObserver) UploadFinished(bool, time.Duration, int) {}
func (NopPipelineObserver) SignedURLsRequested(int, bool)           {}
func (NopPipelineObserver) SignedURLsReceived(int)                  {}

package usecase

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/application/port"
	"github.com/dreschagin/motion-camera/internal/domain/entity"
	"github.com/dreschagin/motion-camera/internal/domain/queue"
	"github.com/dreschagin/motion-camera/internal/domain/repository"
	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

const imageContentType = "image/jpeg"

// URLSource выдает подписанный URL, блокируясь, пока он не появится
type URLSource interface {
	Acquire(ctx context.Context) (string, error)
}

type UploadImagesConfig struct {
	ClientID      string
	MaxConcurrent int
	EventSubject  string
	RecordTTL     time.Duration
}

// UploadImagesUseCase выгружает снимки из стека с ограничением параллельности.
// Локальный файл удаляется после любой попытки выгрузки, неудачные выгрузки не повторяются.
type UploadImagesUseCase struct {
	urls     URLSource
	uploader port.ObjectUploader
	store    port.ImageStore
	records  repository.CaptureRecordRepository
	events   port.EventPublisher
	observer port.PipelineObserver
	config   UploadImagesConfig
	logger   *logger.Logger

	mu       sync.Mutex
	stack    *queue.WorkStack
	inFlight int
	wg       sync.WaitGroup

	succeeded atomic.Uint64
	failed    atomic.Uint64
}

// NewUploadImagesUseCase создает use case. records и events могут быть nil.
func NewUploadImagesUseCase(
	urls URLSource,
	uploader port.ObjectUploader,
	store port.ImageStore,
	records repository.CaptureRecordRepository,
	events port.EventPublisher,
	observer port.PipelineObserver,
	config UploadImagesConfig,
	log *logger.Logger,
) *UploadImagesUseCase {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}
	if observer == nil {
		observer = port.NopPipelineObserver{}
	}

	return &UploadImagesUseCase{
		urls:     urls,
		uploader: uploader,
		store:    store,
		records:  records,
		events:   events,
		observer: observer,
		config:   config,
		logger:   log,
		stack:    queue.NewWorkStack(),
	}
}

// Enqueue кладет снимок в стек выгрузки и возвращает длину стека
func (uc *UploadImagesUseCase) Enqueue(path string) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.stack.Push(path)
}

// Pump запускает выгрузки, пока есть свободные слоты и снимки в стеке.
// Каждая завершенная выгрузка сразу вызывает Pump снова.
func (uc *UploadImagesUseCase) Pump(ctx context.Context) int {
	started := 0

	for ctx.Err() == nil {
		uc.mu.Lock()
		if uc.inFlight >= uc.config.MaxConcurrent {
			uc.mu.Unlock()
			break
		}
		path, ok := uc.stack.Pop()
		if !ok {
			uc.mu.Unlock()
			break
		}
		uc.inFlight++
		uc.wg.Add(1)
		uc.mu.Unlock()

		started++
		go uc.upload(ctx, path)
	}

	return started
}

func (uc *UploadImagesUseCase) upload(ctx context.Context, path string) {
	defer uc.wg.Done()
	defer func() {
		uc.mu.Lock()
		uc.inFlight--
		uc.mu.Unlock()

		uc.Pump(ctx)
	}()

	signedURL, err := uc.urls.Acquire(ctx)
	if err != nil {
		// файл остается в каталоге готовых снимков
		uc.logger.Warn("Upload abandoned before start", "path", path, "error", err.Error())
		return
	}

	// начатая выгрузка доводится до конца и при остановке
	putCtx := context.WithoutCancel(ctx)

	startedAt := time.Now()
	body, err := uc.store.ReadFile(path)
	if err == nil {
		err = uc.uploader.Put(putCtx, signedURL, imageContentType, body)
	}
	duration := time.Since(startedAt)

	if removeErr := uc.store.Remove(path); removeErr != nil {
		uc.logger.Warn("Failed to remove uploaded image", "path", path, "error", removeErr.Error())
	}

	uc.observer.UploadFinished(err == nil, duration, len(body))

	objectKey := valueobject.NewSignedURL(signedURL, time.Time{}).ObjectKey()
	if err != nil {
		uc.failed.Add(1)
		uc.logger.Error("Upload failed", err, "path", path)
	} else {
		uc.succeeded.Add(1)
		uc.logger.Info("Image uploaded", "path", path, "key", objectKey, "bytes", len(body), "duration_ms", duration.Milliseconds())
		uc.saveRecord(putCtx, path, objectKey, len(body))
	}

	uc.publishEvent(putCtx, path, objectKey, len(body), duration, err)
}

func (uc *UploadImagesUseCase) saveRecord(ctx context.Context, path, objectKey string, size int) {
	if uc.records == nil {
		return
	}

	record, err := entity.NewCaptureRecord(uc.config.ClientID, path, objectKey, int64(size), time.Time{}, uc.config.RecordTTL)
	if err != nil {
		uc.logger.Warn("Skipping capture record", "path", path, "error", err.Error())
		return
	}

	if err := uc.records.Save(ctx, record); err != nil {
		uc.logger.Error("Failed to save capture record", err, "key", objectKey)
	}
}

func (uc *UploadImagesUseCase) publishEvent(ctx context.Context, path, objectKey string, size int, duration time.Duration, uploadErr error) {
	if uc.events == nil || uc.config.EventSubject == "" {
		return
	}

	event := dto.UploadEvent{
		ClientID:   uc.config.ClientID,
		FileName:   filepath.Base(path),
		ObjectKey:  objectKey,
		SizeBytes:  size,
		Success:    uploadErr == nil,
		DurationMS: duration.Milliseconds(),
		UploadedAt: time.Now().UTC(),
	}
	if uploadErr != nil {
		event.Error = uploadErr.Error()
	}

	if err := uc.events.PublishEvent(ctx, uc.config.EventSubject, event); err != nil {
		uc.logger.Warn("Failed to publish upload event", "subject", uc.config.EventSubject, "error", err.Error())
	}
}

// Wait блокируется до завершения всех запущенных выгрузок
func (uc *UploadImagesUseCase) Wait() {
	uc.wg.Wait()
}

// Backlog число снимков в стеке выгрузки
func (uc *UploadImagesUseCase) Backlog() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.stack.Len()
}

// InFlight число выполняющихся выгрузок
func (uc *UploadImagesUseCase) InFlight() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.inFlight
}

// Counters возвращает число успешных и неудачных выгрузок
func (uc *UploadImagesUseCase) Counters() (succeeded, failed uint64) {
	return uc.succeeded.Load(), uc.failed.Load()
}

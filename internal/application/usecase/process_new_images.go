package usecase

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/dreschagin/motion-camera/internal/application/port"
	"github.com/dreschagin/motion-camera/internal/domain/queue"
	"github.com/dreschagin/motion-camera/internal/domain/service"
	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

// UploadQueue принимает снимки с движением на выгрузку
type UploadQueue interface {
	Enqueue(path string) int
}

type ProcessNewImagesConfig struct {
	ReadyDir    string
	Sensitivity float64
	Hotspots    []valueobject.HotspotRegion
	ThumbWidth  int
	ThumbHeight int
}

// ProcessNewImagesUseCase берет новые снимки из стека и ищет на них движение.
// Одновременно выполняется не больше одного сравнения (флаг busy).
type ProcessNewImagesUseCase struct {
	extractor port.ThumbnailExtractor
	loader    port.FrameLoader
	store     port.ImageStore
	detector  *service.MotionDetector
	uploads   UploadQueue
	observer  port.PipelineObserver
	config    ProcessNewImagesConfig
	logger    *logger.Logger

	mu        sync.Mutex
	stack     *queue.WorkStack
	busy      bool
	reference image.Image

	processed atomic.Uint64
	motion    atomic.Uint64
}

func NewProcessNewImagesUseCase(
	extractor port.ThumbnailExtractor,
	loader port.FrameLoader,
	store port.ImageStore,
	detector *service.MotionDetector,
	uploads UploadQueue,
	observer port.PipelineObserver,
	config ProcessNewImagesConfig,
	log *logger.Logger,
) *ProcessNewImagesUseCase {
	if observer == nil {
		observer = port.NopPipelineObserver{}
	}

	return &ProcessNewImagesUseCase{
		extractor: extractor,
		loader:    loader,
		store:     store,
		detector:  detector,
		uploads:   uploads,
		observer:  observer,
		config:    config,
		logger:    log,
		stack:     queue.NewWorkStack(),
		// первый кадр сравнивается с красным, поэтому почти всегда выгружается
		reference: service.SolidFrame(config.ThumbWidth, config.ThumbHeight, color.NRGBA{R: 0xFF, A: 0xFF}),
	}
}

// Add кладет путь нового снимка в стек и возвращает длину стека
func (uc *ProcessNewImagesUseCase) Add(path string) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.stack.Push(path)
}

// Cancel убирает снимок из стека, если файл исчез до обработки
func (uc *ProcessNewImagesUseCase) Cancel(path string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.stack.Cancel(path)
}

// Execute обрабатывает самый свежий снимок. Если идет другое сравнение или стек пуст, ничего не делает.
// Возвращает true, если снимок был взят в обработку.
func (uc *ProcessNewImagesUseCase) Execute(ctx context.Context) bool {
	uc.mu.Lock()
	if uc.busy {
		uc.mu.Unlock()
		return false
	}
	path, ok := uc.stack.Pop()
	if !ok {
		uc.mu.Unlock()
		return false
	}
	uc.busy = true
	uc.mu.Unlock()

	defer func() {
		uc.mu.Lock()
		uc.busy = false
		uc.mu.Unlock()
	}()

	uc.process(ctx, path)
	return true
}

func (uc *ProcessNewImagesUseCase) process(ctx context.Context, path string) {
	thumbPath, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		uc.logger.Error("Failed to extract thumbnail", err, "path", path)
		return
	}

	frame, err := uc.loader.Load(thumbPath)
	if removeErr := uc.store.Remove(thumbPath); removeErr != nil {
		uc.logger.Warn("Failed to remove thumbnail", "path", thumbPath, "error", removeErr.Error())
	}
	if err != nil {
		uc.logger.Error("Failed to decode thumbnail", err, "path", thumbPath)
		return
	}

	uc.processed.Add(1)

	detected, err := uc.detector.Detect(frame, uc.reference, uc.config.Hotspots, uc.config.Sensitivity)
	if errors.Is(err, service.ErrFrameSizeMismatch) {
		// кадр другого размера становится новой точкой отсчета
		uc.logger.Warn("Thumbnail size changed, reference frame replaced", "path", path, "error", err.Error())
		uc.reference = frame
		uc.observer.ImageProcessed(false)
		return
	}
	if err != nil {
		uc.logger.Error("Motion detection failed", err, "path", path)
		return
	}

	uc.observer.ImageProcessed(detected)
	if !detected {
		uc.logger.Debug("No motion", "path", path)
		return
	}

	readyPath, err := uc.store.Move(path, uc.config.ReadyDir)
	if err != nil {
		uc.logger.Error("Failed to move image to ready directory", err, "path", path)
		return
	}

	uc.reference = frame
	uc.motion.Add(1)
	backlog := uc.uploads.Enqueue(readyPath)

	uc.logger.Info("Motion detected", "path", readyPath, "upload_backlog", backlog)
}

// Backlog число снимков, ожидающих сравнения
func (uc *ProcessNewImagesUseCase) Backlog() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.stack.Len()
}

// Busy истинно, пока идет сравнение
func (uc *ProcessNewImagesUseCase) Busy() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.busy
}

// Counters возвращает число обработанных снимков и снимков с движением
func (uc *ProcessNewImagesUseCase) Counters() (processed, motion uint64) {
	return uc.processed.Load(), uc.motion.Load()
}

package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/application/port"
	"github.com/dreschagin/motion-camera/internal/application/usecase"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

type Config struct {
	DetectInterval time.Duration
	UploadInterval time.Duration
	StatusInterval time.Duration
}

// Orchestrator связывает наблюдение за каталогом, поиск движения, выгрузку и пул URL.
// Вся работа выполняется по тикам.
type Orchestrator struct {
	source    port.CaptureSource
	detection *usecase.ProcessNewImagesUseCase
	uploads   *usecase.UploadImagesUseCase
	pool      *usecase.SignedURLPool
	status    *usecase.ReportStatusUseCase
	config    Config
	logger    *logger.Logger
}

// New создает оркестратор. status может быть nil.
func New(
	source port.CaptureSource,
	detection *usecase.ProcessNewImagesUseCase,
	uploads *usecase.UploadImagesUseCase,
	pool *usecase.SignedURLPool,
	status *usecase.ReportStatusUseCase,
	config Config,
	log *logger.Logger,
) *Orchestrator {
	if config.DetectInterval <= 0 {
		config.DetectInterval = 500 * time.Millisecond
	}
	if config.UploadInterval <= 0 {
		config.UploadInterval = 100 * time.Millisecond
	}
	if config.StatusInterval <= 0 {
		config.StatusInterval = 30 * time.Second
	}

	return &Orchestrator{
		source:    source,
		detection: detection,
		uploads:   uploads,
		pool:      pool,
		status:    status,
		config:    config,
		logger:    log,
	}
}

// Run работает до отмены ctx, затем дожидается начатых выгрузок
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Info("Pipeline started",
		"detect_interval", o.config.DetectInterval.String(),
		"upload_interval", o.config.UploadInterval.String(),
	)

	// первая партия URL запрашивается сразу
	o.pool.Replenish(ctx, true)

	var wg sync.WaitGroup
	wg.Add(3)
	go o.routeEvents(ctx, &wg)
	go o.detectLoop(ctx, &wg)
	go o.uploadLoop(ctx, &wg)

	if o.status != nil {
		wg.Add(1)
		go o.statusLoop(ctx, &wg)
	}

	<-ctx.Done()
	o.logger.Info("Pipeline stopping, waiting for in-flight uploads",
		"in_flight", o.uploads.InFlight(),
		"backlog", o.uploads.Backlog(),
	)

	wg.Wait()
	o.uploads.Wait()
	o.pool.Close()

	o.logger.Info("Pipeline stopped")
}

func (o *Orchestrator) routeEvents(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	events := o.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				o.logger.Warn("Capture source closed")
				return
			}
			o.handle(event)
		}
	}
}

func (o *Orchestrator) handle(event dto.CaptureEvent) {
	switch event.Op {
	case dto.CaptureCreated:
		backlog := o.detection.Add(event.Path)
		o.logger.Debug("New image", "path", event.Path, "backlog", backlog)
	case dto.CaptureRemoved:
		o.detection.Cancel(event.Path)
		o.logger.Debug("Image removed", "path", event.Path)
	}
}

func (o *Orchestrator) detectLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(o.config.DetectInterval)
	defer ticker.Stop()

	var running sync.WaitGroup
	defer running.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if o.detection.Busy() {
				continue
			}
			running.Add(1)
			go func() {
				defer running.Done()
				o.detection.Execute(ctx)
			}()
		}
	}
}

func (o *Orchestrator) uploadLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(o.config.UploadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.uploads.Pump(ctx)
		}
	}
}

func (o *Orchestrator) statusLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(o.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.status.Execute(ctx)
		}
	}
}

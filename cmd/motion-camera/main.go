package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Application
	"github.com/dreschagin/motion-camera/internal/application/orchestrator"
	"github.com/dreschagin/motion-camera/internal/application/port"
	"github.com/dreschagin/motion-camera/internal/application/usecase"

	// Domain
	"github.com/dreschagin/motion-camera/internal/domain/repository"
	"github.com/dreschagin/motion-camera/internal/domain/service"

	// Infrastructure
	rediscache "github.com/dreschagin/motion-camera/internal/infrastructure/cache/redis"
	"github.com/dreschagin/motion-camera/internal/infrastructure/collector"
	"github.com/dreschagin/motion-camera/internal/infrastructure/filesystem"
	mqttchannel "github.com/dreschagin/motion-camera/internal/infrastructure/messaging/mqtt"
	natsmessaging "github.com/dreschagin/motion-camera/internal/infrastructure/messaging/nats"
	"github.com/dreschagin/motion-camera/internal/infrastructure/observability/cloudwatch"
	pipelinemetrics "github.com/dreschagin/motion-camera/internal/infrastructure/observability/prometheus"
	dynamorepo "github.com/dreschagin/motion-camera/internal/infrastructure/persistence/dynamodb"
	s3storage "github.com/dreschagin/motion-camera/internal/infrastructure/storage/s3"
	"github.com/dreschagin/motion-camera/internal/infrastructure/thumbnail"

	// Interfaces
	httpInterface "github.com/dreschagin/motion-camera/internal/interfaces/http"
	"github.com/dreschagin/motion-camera/internal/interfaces/http/handler"
	"github.com/dreschagin/motion-camera/internal/interfaces/http/middleware"

	// Shared
	"github.com/dreschagin/motion-camera/pkg/config"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

type connectedChannel interface {
	port.SignedURLChannel
	Connected() bool
}

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting motion camera",
		"client_id", cfg.AWS.ClientID,
		"transport", cfg.SignedURL.Transport,
		"capture_dir", cfg.Capture.Dir,
		"ready_dir", cfg.Capture.ReadyDir,
		"image_size", fmt.Sprintf("%dx%d", cfg.Capture.Width, cfg.Capture.Height),
		"image_quality", cfg.Capture.Quality,
		"image_rotation", cfg.Capture.Rotation,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Capture.ReadyDir, 0o755); err != nil {
		log.Error("Failed to create ready directory", err, "dir", cfg.Capture.ReadyDir)
		os.Exit(1)
	}

	// 3. Observability
	var logsPublisher *cloudwatch.LogsPublisher
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, err = cloudwatch.NewLogsPublisher(ctx, cloudwatch.LogsPublisherConfig{
			LogGroupName:    cfg.CloudWatch.LogGroup,
			LogStreamName:   cfg.CloudWatch.LogStream,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			FlushInterval:   cfg.CloudWatch.FlushInterval,
			AutoCreate:      true,
		})
		if err != nil {
			// без CloudWatch Logs камера продолжает работать
			log.Error("Failed to initialize CloudWatch logs publisher", err)
		} else {
			log.SetLogPublisher(logsPublisher)
			log.Info("CloudWatch logs enabled", "group", cfg.CloudWatch.LogGroup, "stream", cfg.CloudWatch.LogStream)
		}
	}

	var metricsPublisher port.MetricsPublisher
	var cwMetrics *cloudwatch.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		cwMetrics, err = cloudwatch.NewMetricsPublisher(ctx, cloudwatch.MetricsPublisherConfig{
			Namespace:         cfg.CloudWatch.Namespace,
			Region:            cfg.CloudWatch.Region,
			Endpoint:          cfg.CloudWatch.Endpoint,
			AccessKeyID:       cfg.CloudWatch.AccessKeyID,
			SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
			DefaultDimensions: map[string]string{"ClientId": cfg.AWS.ClientID},
			FlushInterval:     cfg.CloudWatch.FlushInterval,
		}, log)
		if err != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", err)
		} else {
			metricsPublisher = cwMetrics
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := pipelinemetrics.New(registry)

	// 4. Dependency Injection - Infrastructure Layer

	var channel connectedChannel
	switch cfg.SignedURL.Transport {
	case config.TransportNATS:
		channel, err = natsmessaging.NewSignedURLChannel(cfg.NATS.URL, cfg.AWS.ClientID, cfg.SignedURL.RequestTopic, cfg.ReplyTopic(), log)
	default:
		channel, err = mqttchannel.NewSignedURLChannel(mqttchannel.Config{
			Endpoint:     cfg.AWS.Endpoint,
			ClientID:     cfg.AWS.ClientID,
			PrivateKey:   cfg.AWS.PrivateCert,
			RootCA:       cfg.AWS.RootCert,
			Certificate:  cfg.AWS.ThingCert,
			RequestTopic: cfg.SignedURL.RequestTopic,
			ReplyTopic:   cfg.ReplyTopic(),
		}, log)
	}
	if err != nil {
		log.Error("Failed to connect signed URL channel", err, "transport", cfg.SignedURL.Transport)
		os.Exit(1)
	}
	defer channel.Close()

	var records repository.CaptureRecordRepository
	if cfg.Dynamo.Enabled {
		repo, err := dynamorepo.NewCaptureRecordRepository(ctx, dynamorepo.Config{
			TableName:       cfg.Dynamo.TableName,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
		})
		if err != nil {
			log.Error("Failed to initialize DynamoDB repository", err)
		} else {
			records = repo
		}
	}

	var events port.EventPublisher
	if cfg.NATS.EventsEnabled {
		publisher, err := natsmessaging.NewEventPublisher(cfg.NATS.URL, cfg.NATS.EventStream, []string{cfg.NATS.EventSubject}, log)
		if err != nil {
			log.Error("Failed to initialize NATS event publisher", err)
		} else {
			events = publisher
			defer publisher.Close()
		}
	}

	var cache port.Cache
	var redisCache *rediscache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = rediscache.NewRedisCache(rediscache.Options{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Redis.TTL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Error("Failed to connect to Redis", err)
		} else {
			cache = redisCache
			defer redisCache.Close()
		}
	}

	watcher, err := filesystem.NewCaptureWatcher(cfg.Capture.Dir, cfg.Capture.IgnorePattern, log)
	if err != nil {
		log.Error("Failed to watch capture directory", err, "dir", cfg.Capture.Dir)
		os.Exit(1)
	}
	defer watcher.Close()

	store := filesystem.NewImageStore()
	deviceCollector := collector.NewDeviceMetricsCollector(map[string]string{
		"capture": cfg.Capture.Dir,
		"ready":   cfg.Capture.ReadyDir,
	}, time.Second)

	// 5. Dependency Injection - Domain Layer

	hotspots := service.NewHotspotCalculator().Resolve(cfg.Motion.Hotspots, cfg.Thumbnail.Width, cfg.Thumbnail.Height)
	log.Info("Motion hotspots", "hotspots", cfg.Motion.Hotspots, "regions", len(hotspots), "sensitivity", cfg.Motion.Sensitivity)

	// 6. Dependency Injection - Application Layer (Use Cases)

	pool := usecase.NewSignedURLPool(channel, channel.ReplyTo(), usecase.SignedURLPoolConfig{
		IoTEndpoint:  cfg.AWS.Endpoint,
		Bucket:       cfg.AWS.ImageBucket,
		BatchSize:    cfg.SignedURL.BatchSize,
		LowWaterMark: cfg.SignedURL.LowWaterMark,
		PollInterval: cfg.SignedURL.PollInterval,
		ForceEvery:   cfg.SignedURL.ForceEvery,
		RetryBackoff: cfg.SignedURL.RetryBackoff,
		ExpiryMargin: cfg.SignedURL.ExpiryMargin,
		DefaultTTL:   cfg.SignedURL.DefaultTTL,
	}, metrics, log)

	if err := channel.Subscribe(ctx, pool.Receive); err != nil {
		log.Error("Failed to subscribe to signed URL responses", err, "topic", channel.ReplyTo())
		os.Exit(1)
	}

	uploadsUC := usecase.NewUploadImagesUseCase(
		pool,
		s3storage.NewSignedURLUploader(0),
		store,
		records,
		events,
		metrics,
		usecase.UploadImagesConfig{
			ClientID:      cfg.AWS.ClientID,
			MaxConcurrent: cfg.Scheduler.MaxConcurrentUploads,
			EventSubject:  cfg.NATS.EventSubject,
			RecordTTL:     cfg.Dynamo.RecordTTL,
		},
		log,
	)

	detectionUC := usecase.NewProcessNewImagesUseCase(
		thumbnail.NewExiv2Extractor(cfg.Thumbnail.Command, cfg.Thumbnail.Suffix),
		thumbnail.NewJPEGLoader(),
		store,
		service.NewMotionDetector(),
		uploadsUC,
		metrics,
		usecase.ProcessNewImagesConfig{
			ReadyDir:    cfg.Capture.ReadyDir,
			Sensitivity: cfg.Motion.Sensitivity,
			Hotspots:    hotspots,
			ThumbWidth:  cfg.Thumbnail.Width,
			ThumbHeight: cfg.Thumbnail.Height,
		},
		log,
	)

	statusUC := usecase.NewReportStatusUseCase(
		cfg.AWS.ClientID,
		detectionUC,
		uploadsUC,
		pool,
		deviceCollector,
		metricsPublisher,
		cache,
		metrics,
		log,
	)

	pipeline := orchestrator.New(watcher, detectionUC, uploadsUC, pool, statusUC, orchestrator.Config{
		DetectInterval: cfg.Scheduler.DetectInterval,
		UploadInterval: cfg.Scheduler.UploadInterval,
		StatusInterval: cfg.Scheduler.StatusInterval,
	}, log)

	// 7. Interfaces Layer (HTTP)

	var server *http.Server
	if cfg.Server.Enabled {
		checks := map[string]handler.ReadinessCheck{
			"signed_url_channel": func(context.Context) error {
				if !channel.Connected() {
					return errors.New("not connected")
				}
				return nil
			},
		}
		if redisCache != nil {
			checks["redis"] = redisCache.Ping
		}

		var capturesHandler *handler.CapturesHandler
		if records != nil {
			capturesHandler = handler.NewCapturesHandler(records, cfg.AWS.ClientID, log)
		}

		rateLimiter := middleware.NewIPRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		go rateLimiter.Run(ctx, 5*time.Minute)

		router := httpInterface.NewRouter(
			handler.NewHealthHandler(checks, 2*time.Second),
			handler.NewStatusHandler(statusUC),
			capturesHandler,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			metrics.Middleware,
			rateLimiter,
			cfg.Server,
			log,
		)

		server = &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           router.Setup(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Info("HTTP server starting", "port", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP server failed", err)
				stop()
			}
		}()
	}

	// 8. Запускаем конвейер, Run возвращается после сигнала и завершения начатых выгрузок
	pipeline.Run(ctx)

	// 9. Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", err)
		}
	}
	if cwMetrics != nil {
		if err := cwMetrics.Close(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	log.Info("Motion camera stopped")

	if logsPublisher != nil {
		log.SetLogPublisher(nil)
		if err := logsPublisher.Close(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush CloudWatch logs: %v\n", err)
		}
	}
}

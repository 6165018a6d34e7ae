package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	natsmessaging "github.com/dreschagin/motion-camera/internal/infrastructure/messaging/nats"
	s3storage "github.com/dreschagin/motion-camera/internal/infrastructure/storage/s3"
	"github.com/dreschagin/motion-camera/pkg/config"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

// signed-url-issuer отвечает камерам пачками предподписанных S3 PUT URL через NATS
func main() {
	cfg, err := config.LoadIssuer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting signed URL issuer", "nats", cfg.NATSURL, "topic", cfg.RequestTopic)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := s3storage.NewURLIssuer(ctx, s3storage.Config{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UsePathStyle:    cfg.UsePathStyle,
		KeyPrefix:       cfg.KeyPrefix,
		URLTTL:          cfg.URLTTL,
	})
	if err != nil {
		log.Error("Failed to initialize S3 presigner", err)
		os.Exit(1)
	}

	nc, err := natsmessaging.Connect(cfg.NATSURL, "signed-url-issuer", log)
	if err != nil {
		log.Error("Failed to connect to NATS", err)
		os.Exit(1)
	}
	defer nc.Close()

	responder := natsmessaging.NewIssuerResponder(nc, cfg.RequestTopic, issuer, log)
	if err := responder.Start(); err != nil {
		log.Error("Failed to start responder", err)
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")

	if err := responder.Stop(); err != nil {
		log.Error("Failed to drain responder", err)
	}

	log.Info("Signed URL issuer stopped")
}

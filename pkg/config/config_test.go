package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredMQTTEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_ENDPOINT", "abc123-ats.iot.us-east-1.amazonaws.com")
	t.Setenv("AWS_PRIVATE_CERT", "cHJpdmF0ZQ==")
	t.Setenv("AWS_ROOT_CERT", "cm9vdA==")
	t.Setenv("AWS_THING_CERT", "dGhpbmc=")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_IMAGE_BUCKET", "camera-images")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredMQTTEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Capture.Dir != "/image-temp" || cfg.Capture.ReadyDir != "/image-ready" {
		t.Errorf("unexpected capture dirs: %+v", cfg.Capture)
	}
	if cfg.Motion.Sensitivity != 10.0 || cfg.Motion.Hotspots != "0,0,100,100" {
		t.Errorf("unexpected motion config: %+v", cfg.Motion)
	}
	if cfg.Thumbnail.Width != 20 || cfg.Thumbnail.Height != 16 {
		t.Errorf("unexpected thumbnail size: %dx%d", cfg.Thumbnail.Width, cfg.Thumbnail.Height)
	}
	if cfg.Scheduler.DetectInterval != 500*time.Millisecond || cfg.Scheduler.UploadInterval != 100*time.Millisecond {
		t.Errorf("unexpected scheduler intervals: %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.MaxConcurrentUploads != 5 {
		t.Errorf("MaxConcurrentUploads = %d, want 5", cfg.Scheduler.MaxConcurrentUploads)
	}
	if cfg.SignedURL.LowWaterMark != 5 || cfg.SignedURL.ForceEvery != 10 || cfg.SignedURL.BatchSize != 10 {
		t.Errorf("unexpected signed url config: %+v", cfg.SignedURL)
	}
	if cfg.SignedURL.RetryBackoff != 30*time.Second || cfg.SignedURL.DefaultTTL != 290*time.Second {
		t.Errorf("unexpected signed url timings: %+v", cfg.SignedURL)
	}
	if cfg.Dynamo.RecordTTL != 30*24*time.Hour {
		t.Errorf("RecordTTL = %v, want 30 days", cfg.Dynamo.RecordTTL)
	}
	if cfg.CloudWatch.LogStream != cfg.AWS.ClientID {
		t.Errorf("log stream should default to client id")
	}
}

func TestLoad_ClientIDAndReplyTopic(t *testing.T) {
	setRequiredMQTTEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !strings.HasPrefix(cfg.AWS.ClientID, "camera-") || len(cfg.AWS.ClientID) != 43 {
		t.Fatalf("unexpected client id %q", cfg.AWS.ClientID)
	}

	want := "iot/camera/" + cfg.AWS.ClientID + "/SignedUrlResponses"
	if cfg.ReplyTopic() != want {
		t.Fatalf("ReplyTopic() = %q, want %q", cfg.ReplyTopic(), want)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	setRequiredMQTTEnv(t)
	t.Setenv("AWS_THING_CERT", "")
	t.Setenv("AWS_ROOT_CERT", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "AWS_ROOT_CERT, AWS_THING_CERT") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing bucket",
			env:     map[string]string{"AWS_IMAGE_BUCKET": ""},
			wantErr: "AWS_IMAGE_BUCKET is required",
		},
		{
			name:    "unknown transport",
			env:     map[string]string{"TRANSPORT": "amqp"},
			wantErr: "unsupported TRANSPORT",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"DETECT_INTERVAL": "soon"},
			wantErr: "invalid DETECT_INTERVAL",
		},
		{
			name:    "bad sensitivity",
			env:     map[string]string{"MOTION_SENSITIVITY": "high"},
			wantErr: "invalid MOTION_SENSITIVITY",
		},
		{
			name:    "zero concurrency",
			env:     map[string]string{"UPLOAD_MAX_CONCURRENT": "0"},
			wantErr: "UPLOAD_MAX_CONCURRENT must be positive",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredMQTTEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoad_NATSTransportSkipsIoTCertificates(t *testing.T) {
	t.Setenv("TRANSPORT", "nats")
	t.Setenv("AWS_IMAGE_BUCKET", "camera-images")
	t.Setenv("AWS_PRIVATE_CERT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SignedURL.Transport != TransportNATS {
		t.Fatalf("Transport = %q", cfg.SignedURL.Transport)
	}
}

func TestLoadIssuer(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "http://localhost:4566")
	t.Setenv("S3_USE_PATH_STYLE", "true")

	cfg, err := LoadIssuer()
	if err != nil {
		t.Fatalf("LoadIssuer() error = %v", err)
	}
	if cfg.URLTTL != 300*time.Second {
		t.Errorf("URLTTL = %v, want 300s", cfg.URLTTL)
	}
	if !cfg.UsePathStyle || cfg.Endpoint != "http://localhost:4566" {
		t.Errorf("unexpected S3 options: %+v", cfg)
	}
	if cfg.RequestTopic != "iot/service/s3SignedUrlRequests" || cfg.KeyPrefix != "captures" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	t.Setenv("SIGNED_URL_TTL", "-1s")
	if _, err := LoadIssuer(); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}

func TestLoad_ServerDefaults(t *testing.T) {
	setRequiredMQTTEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9102" || cfg.Server.AuthToken != "" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RateLimitRPS != 5 || cfg.Server.RateLimitBurst != 10 {
		t.Errorf("unexpected rate limit: %+v", cfg.Server)
	}
}

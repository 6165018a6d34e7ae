package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	TransportMQTT = "mqtt"
	TransportNATS = "nats"
)

type Config struct {
	LogLevel   string
	Capture    CaptureConfig
	Motion     MotionConfig
	Thumbnail  ThumbnailConfig
	Scheduler  SchedulerConfig
	SignedURL  SignedURLConfig
	AWS        AWSConfig
	NATS       NATSConfig
	Dynamo     DynamoConfig
	Redis      RedisConfig
	CloudWatch CloudWatchConfig
	Server     ServerConfig
}

// CaptureConfig описывает каталоги и параметры съемки.
// Width/Height/Quality/Rotation использует внешний процесс съемки, здесь они только логируются.
type CaptureConfig struct {
	Dir           string
	ReadyDir      string
	IgnorePattern string
	Width         int
	Height        int
	Quality       int
	Rotation      int
}

type MotionConfig struct {
	Sensitivity float64
	Hotspots    string
}

type ThumbnailConfig struct {
	Command string
	Suffix  string
	Width   int
	Height  int
}

type SchedulerConfig struct {
	DetectInterval       time.Duration
	UploadInterval       time.Duration
	StatusInterval       time.Duration
	MaxConcurrentUploads int
}

type SignedURLConfig struct {
	Transport    string
	RequestTopic string
	BatchSize    int
	LowWaterMark int
	PollInterval time.Duration
	ForceEvery   int
	RetryBackoff time.Duration
	ExpiryMargin time.Duration
	DefaultTTL   time.Duration
}

// AWSConfig содержит параметры устройства AWS IoT. Сертификаты передаются в base64 (PEM).
type AWSConfig struct {
	Endpoint    string
	PrivateCert string
	RootCert    string
	ThingCert   string
	Region      string
	ImageBucket string
	ClientID    string
}

// NATSConfig адрес NATS для TRANSPORT=nats и событий выгрузки в JetStream
type NATSConfig struct {
	URL           string
	EventsEnabled bool
	EventStream   string
	EventSubject  string
}

type DynamoConfig struct {
	Enabled         bool
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	RecordTTL       time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type CloudWatchConfig struct {
	MetricsEnabled  bool
	LogsEnabled     bool
	Namespace       string
	LogGroup        string
	LogStream       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	FlushInterval   time.Duration
}

// ServerConfig локальный HTTP для проб, Prometheus и статуса.
// Пустой AuthToken отключает проверку токена на /api/v1/*.
type ServerConfig struct {
	Enabled         bool
	Port            string
	ShutdownTimeout time.Duration
	AuthToken       string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// IssuerConfig параметры сервиса выдачи подписанных URL
type IssuerConfig struct {
	NATSURL         string
	RequestTopic    string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	URLTTL          time.Duration
	LogLevel        string
}

// ReplyTopic возвращает топик, на который сервис выдачи URL присылает ответы для этого устройства.
func (c *Config) ReplyTopic() string {
	return fmt.Sprintf("iot/camera/%s/SignedUrlResponses", c.AWS.ClientID)
}

func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	var errs []string
	intVar := func(key, def string) int {
		v, err := strconv.Atoi(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	durationVar := func(key, def string) time.Duration {
		v, err := parseDuration(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	floatVar := func(key, def string) float64 {
		v, err := strconv.ParseFloat(getEnv(key, def), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Capture: CaptureConfig{
			Dir:           getEnv("CAPTURE_DIR", "/image-temp"),
			ReadyDir:      getEnv("READY_DIR", "/image-ready"),
			IgnorePattern: getEnv("CAPTURE_IGNORE_PATTERN", `preview|~$|\.swp$|\.tmp$`),
			Width:         intVar("IMAGE_WIDTH", "1640"),
			Height:        intVar("IMAGE_HEIGHT", "1232"),
			Quality:       intVar("IMAGE_QUALITY", "80"),
			Rotation:      intVar("IMAGE_ROTATION", "0"),
		},
		Motion: MotionConfig{
			Sensitivity: floatVar("MOTION_SENSITIVITY", "10.0"),
			Hotspots:    getEnv("MOTION_HOTSPOTS", "0,0,100,100"),
		},
		Thumbnail: ThumbnailConfig{
			Command: getEnv("THUMBNAIL_COMMAND", "exiv2"),
			Suffix:  getEnv("THUMBNAIL_SUFFIX", "-preview1"),
			Width:   intVar("THUMB_WIDTH", "20"),
			Height:  intVar("THUMB_HEIGHT", "16"),
		},
		Scheduler: SchedulerConfig{
			DetectInterval:       durationVar("DETECT_INTERVAL", "500ms"),
			UploadInterval:       durationVar("UPLOAD_INTERVAL", "100ms"),
			StatusInterval:       durationVar("STATUS_INTERVAL", "30s"),
			MaxConcurrentUploads: intVar("UPLOAD_MAX_CONCURRENT", "5"),
		},
		SignedURL: SignedURLConfig{
			Transport:    strings.ToLower(getEnv("TRANSPORT", TransportMQTT)),
			RequestTopic: getEnv("SIGNED_URL_REQUEST_TOPIC", "iot/service/s3SignedUrlRequests"),
			BatchSize:    intVar("SIGNED_URL_BATCH", "10"),
			LowWaterMark: intVar("SIGNED_URL_LOW_WATER", "5"),
			PollInterval: durationVar("SIGNED_URL_POLL_INTERVAL", "1s"),
			ForceEvery:   intVar("SIGNED_URL_FORCE_EVERY", "10"),
			RetryBackoff: durationVar("SIGNED_URL_RETRY_BACKOFF", "30s"),
			ExpiryMargin: durationVar("SIGNED_URL_EXPIRY_MARGIN", "5s"),
			DefaultTTL:   durationVar("SIGNED_URL_DEFAULT_TTL", "290s"),
		},
		AWS: AWSConfig{
			Endpoint:    getEnv("AWS_ENDPOINT", ""),
			PrivateCert: getEnv("AWS_PRIVATE_CERT", ""),
			RootCert:    getEnv("AWS_ROOT_CERT", ""),
			ThingCert:   getEnv("AWS_THING_CERT", ""),
			Region:      getEnv("AWS_REGION", ""),
			ImageBucket: getEnv("AWS_IMAGE_BUCKET", ""),
			ClientID:    getEnv("MQTT_CLIENT_ID", NewClientID()),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			EventsEnabled: getEnvBool("NATS_EVENTS_ENABLED", false),
			EventStream:   getEnv("NATS_EVENT_STREAM", "CAMERA_UPLOADS"),
			EventSubject:  getEnv("NATS_EVENT_SUBJECT", "camera.uploads"),
		},
		Dynamo: DynamoConfig{
			Enabled:         getEnvBool("DYNAMO_ENABLED", false),
			TableName:       getEnv("DYNAMO_TABLE", "camera-captures"),
			Region:          getEnv("DYNAMO_REGION", getEnv("AWS_REGION", "us-east-1")),
			Endpoint:        getEnv("DYNAMO_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMO_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMO_SECRET_ACCESS_KEY", ""),
			RecordTTL:       time.Duration(intVar("DB_RECORD_TTL", "30")) * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           intVar("REDIS_DB", "0"),
			TTL:          durationVar("REDIS_TTL", "5m"),
			PoolSize:     4,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:  getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			LogsEnabled:     getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			Namespace:       getEnv("CLOUDWATCH_NAMESPACE", "MotionCamera/Pipeline"),
			LogGroup:        getEnv("CLOUDWATCH_LOG_GROUP", "/motion-camera"),
			LogStream:       getEnv("CLOUDWATCH_LOG_STREAM", ""),
			Region:          getEnv("CLOUDWATCH_REGION", getEnv("AWS_REGION", "us-east-1")),
			Endpoint:        getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:     getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			FlushInterval:   durationVar("CLOUDWATCH_FLUSH_INTERVAL", "10s"),
		},
		Server: ServerConfig{
			Enabled:         getEnvBool("HTTP_ENABLED", true),
			Port:            getEnv("HTTP_PORT", "9102"),
			ShutdownTimeout: 10 * time.Second,
			AuthToken:       getEnv("HTTP_AUTH_TOKEN", ""),
			RateLimitRPS:    floatVar("HTTP_RATE_LIMIT_RPS", "5"),
			RateLimitBurst:  intVar("HTTP_RATE_LIMIT_BURST", "10"),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	if cfg.CloudWatch.LogStream == "" {
		cfg.CloudWatch.LogStream = cfg.AWS.ClientID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadIssuer загружает конфигурацию сервиса выдачи подписанных URL
func LoadIssuer() (*IssuerConfig, error) {
	_ = godotenv.Load()

	ttl, err := parseDuration(getEnv("SIGNED_URL_TTL", "300s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIGNED_URL_TTL: %w", err)
	}

	cfg := &IssuerConfig{
		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		RequestTopic:    getEnv("SIGNED_URL_REQUEST_TOPIC", "iot/service/s3SignedUrlRequests"),
		Region:          getEnv("AWS_REGION", "us-east-1"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
		KeyPrefix:       getEnv("S3_KEY_PREFIX", "captures"),
		URLTTL:          ttl,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if cfg.URLTTL <= 0 {
		return nil, fmt.Errorf("SIGNED_URL_TTL must be positive")
	}

	return cfg, nil
}

// Validate проверяет обязательные параметры. Ошибка фатальна: без них устройство не может выгружать снимки.
func (c *Config) Validate() error {
	if c.AWS.ImageBucket == "" {
		return fmt.Errorf("AWS_IMAGE_BUCKET is required")
	}

	switch c.SignedURL.Transport {
	case TransportMQTT:
		missing := make([]string, 0)
		for key, value := range map[string]string{
			"AWS_ENDPOINT":     c.AWS.Endpoint,
			"AWS_PRIVATE_CERT": c.AWS.PrivateCert,
			"AWS_ROOT_CERT":    c.AWS.RootCert,
			"AWS_THING_CERT":   c.AWS.ThingCert,
			"AWS_REGION":       c.AWS.Region,
		} {
			if value == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("AWS IoT options are required: %s", strings.Join(missing, ", "))
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			return fmt.Errorf("NATS_URL is required when TRANSPORT=nats")
		}
	default:
		return fmt.Errorf("unsupported TRANSPORT: %s", c.SignedURL.Transport)
	}

	if c.Thumbnail.Width <= 0 || c.Thumbnail.Height <= 0 {
		return fmt.Errorf("THUMB_WIDTH and THUMB_HEIGHT must be positive")
	}
	if c.Scheduler.MaxConcurrentUploads <= 0 {
		return fmt.Errorf("UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.SignedURL.ForceEvery <= 0 {
		return fmt.Errorf("SIGNED_URL_FORCE_EVERY must be positive")
	}

	return nil
}

// NewClientID генерирует уникальный MQTT client id вида camera-<uuid>.
func NewClientID() string {
	return "camera-" + uuid.NewString()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

package s3

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	imageContentType = "image/jpeg"
	defaultURLTTL    = 300 * time.Second
)

type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	URLTTL          time.Duration
}

// URLIssuer выпускает предподписанные PUT URL для снимков камеры
type URLIssuer struct {
	presign   *s3.PresignClient
	keyPrefix string
	urlTTL    time.Duration
}

func NewURLIssuer(ctx context.Context, cfg Config) (*URLIssuer, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = defaultURLTTL
	}

	options := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	// без явных ключей используется стандартная цепочка (роль, профиль, env)
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &URLIssuer{
		presign:   s3.NewPresignClient(client),
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
		urlTTL:    cfg.URLTTL,
	}, nil
}

// IssueUploadURLs возвращает count URL с уникальными ключами <uuid>.jpg
func (i *URLIssuer) IssueUploadURLs(ctx context.Context, bucket string, count int) ([]string, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	urls := make([]string, 0, count)
	for n := 0; n < count; n++ {
		key := i.objectKey()

		request, err := i.presign.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			ContentType: aws.String(imageContentType),
		}, s3.WithPresignExpires(i.urlTTL))
		if err != nil {
			return nil, fmt.Errorf("presign failed: %w", err)
		}

		urls = append(urls, request.URL)
	}

	return urls, nil
}

func (i *URLIssuer) objectKey() string {
	key := uuid.NewString() + ".jpg"
	if i.keyPrefix == "" {
		return key
	}
	return i.keyPrefix + "/" + key
}

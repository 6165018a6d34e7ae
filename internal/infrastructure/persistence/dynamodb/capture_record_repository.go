package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dreschagin/motion-camera/internal/domain/entity"
)

const (
	defaultListLimit  = 24
	maxListLimit      = 100
	maxBatchWriteSize = 25
	maxBatchRetries   = 5

	attrPK         = "PK"
	attrSK         = "SK"
	attrID         = "id"
	attrDeviceID   = "device_id"
	attrFileName   = "file_name"
	attrObjectKey  = "object_key"
	attrSizeBytes  = "size_bytes"
	attrCapturedAt = "captured_at"
	attrUploadedAt = "uploaded_at"
	attrExpiresAt  = "expires_at"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// CaptureRecordRepository хранит записи о выгруженных снимках.
// Атрибут expires_at (epoch seconds) используется как DynamoDB TTL.
type CaptureRecordRepository struct {
	client      *dynamodb.Client
	tableName   string
	strongReads bool
}

func NewCaptureRecordRepository(ctx context.Context, cfg Config) (*CaptureRecordRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return &CaptureRecordRepository{
		client:      client,
		tableName:   strings.TrimSpace(cfg.TableName),
		strongReads: cfg.StrongReads,
	}, nil
}

func (r *CaptureRecordRepository) Save(ctx context.Context, record *entity.CaptureRecord) error {
	item, err := toItem(record)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put failed: %w", err)
	}

	return nil
}

func (r *CaptureRecordRepository) SaveBatch(ctx context.Context, records []*entity.CaptureRecord) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += maxBatchWriteSize {
		end := start + maxBatchWriteSize
		if end > len(records) {
			end = len(records)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, record := range records[start:end] {
			item, err := toItem(record)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := r.writeBatchWithRetry(ctx, requests); err != nil {
			return err
		}
	}

	return nil
}

func (r *CaptureRecordRepository) ListRecent(ctx context.Context, deviceID string, limit int) ([]*entity.CaptureRecord, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	keyCondition := "#pk = :pk"
	output, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                &r.tableName,
		KeyConditionExpression:   &keyCondition,
		ExpressionAttributeNames: map[string]string{"#pk": attrPK},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(deviceID)},
		},
		Limit:            int32Pointer(int32(limit)),
		ScanIndexForward: boolPointer(false),
		ConsistentRead:   boolPointer(r.strongReads),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb query failed: %w", err)
	}

	records := make([]*entity.CaptureRecord, 0, len(output.Items))
	for _, raw := range output.Items {
		record, err := fromItem(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *CaptureRecordRepository) writeBatchWithRetry(ctx context.Context, requests []types.WriteRequest) error {
	if len(requests) == 0 {
		return nil
	}

	pending := map[string][]types.WriteRequest{
		r.tableName: requests,
	}

	for attempt := 0; attempt < maxBatchRetries; attempt++ {
		output, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("dynamodb batch write failed: %w", err)
		}

		if len(output.UnprocessedItems) == 0 {
			return nil
		}

		pending = output.UnprocessedItems
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}

	return fmt.Errorf("dynamodb batch write has unprocessed items after retries")
}

func toItem(record *entity.CaptureRecord) (map[string]types.AttributeValue, error) {
	if record == nil {
		return nil, fmt.Errorf("capture record is required")
	}
	if strings.TrimSpace(record.DeviceID()) == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if strings.TrimSpace(record.ObjectKey()) == "" {
		return nil, fmt.Errorf("object_key is required")
	}

	uploadedAtMS := record.UploadedAt().UTC().UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:         &types.AttributeValueMemberS{Value: buildPK(record.DeviceID())},
		attrSK:         &types.AttributeValueMemberS{Value: buildSK(uploadedAtMS, record.ID())},
		attrID:         &types.AttributeValueMemberS{Value: record.ID()},
		attrDeviceID:   &types.AttributeValueMemberS{Value: record.DeviceID()},
		attrObjectKey:  &types.AttributeValueMemberS{Value: record.ObjectKey()},
		attrSizeBytes:  &types.AttributeValueMemberN{Value: strconv.FormatInt(record.SizeBytes(), 10)},
		attrCapturedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(record.CapturedAt().UTC().UnixMilli(), 10)},
		attrUploadedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(uploadedAtMS, 10)},
	}

	if fileName := strings.TrimSpace(record.FileName()); fileName != "" {
		item[attrFileName] = &types.AttributeValueMemberS{Value: fileName}
	}
	if !record.ExpiresAt().IsZero() {
		item[attrExpiresAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.ExpiresAt().UTC().Unix(), 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (*entity.CaptureRecord, error) {
	id, err := attrString(item, attrID)
	if err != nil {
		return nil, err
	}
	deviceID, err := attrString(item, attrDeviceID)
	if err != nil {
		return nil, err
	}
	objectKey, err := attrString(item, attrObjectKey)
	if err != nil {
		return nil, err
	}
	capturedAtMS, err := attrInt64(item, attrCapturedAt)
	if err != nil {
		return nil, err
	}
	uploadedAtMS, err := attrInt64(item, attrUploadedAt)
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if seconds := optionalInt64(item, attrExpiresAt); seconds > 0 {
		expiresAt = time.Unix(seconds, 0).UTC()
	}

	return entity.ReconstructCaptureRecord(
		id,
		deviceID,
		optionalString(item, attrFileName),
		objectKey,
		optionalInt64(item, attrSizeBytes),
		time.UnixMilli(capturedAtMS).UTC(),
		time.UnixMilli(uploadedAtMS).UTC(),
		expiresAt,
	), nil
}

func buildPK(deviceID string) string {
	return "DEVICE#" + deviceID
}

func buildSK(uploadedAtMS int64, id string) string {
	return fmt.Sprintf("TS#%013d#ID#%s", uploadedAtMS, id)
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	raw, ok := item[name]
	if !ok {
		return ""
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64(item map[string]types.AttributeValue, name string) int64 {
	raw, ok := item[name]
	if !ok {
		return 0
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}

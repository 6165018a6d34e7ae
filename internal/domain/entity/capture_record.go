package entity

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CaptureRecord запись о снимке, выгруженном в объектное хранилище (Aggregate Root)
type CaptureRecord struct {
	id         string
	deviceID   string
	fileName   string
	objectKey  string
	sizeBytes  int64
	capturedAt time.Time
	uploadedAt time.Time
	expiresAt  time.Time
}

// NewCaptureRecord создает запись (Factory Method). ttl задает срок хранения записи в БД.
func NewCaptureRecord(deviceID, localPath, objectKey string, sizeBytes int64, capturedAt time.Time, ttl time.Duration) (*CaptureRecord, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, errors.New("device id is required")
	}
	if strings.TrimSpace(objectKey) == "" {
		return nil, errors.New("object key is required")
	}
	if sizeBytes < 0 {
		return nil, errors.New("size cannot be negative")
	}

	now := time.Now().UTC()
	if capturedAt.IsZero() {
		capturedAt = now
	}

	return &CaptureRecord{
		id:         uuid.New().String(),
		deviceID:   deviceID,
		fileName:   filepath.Base(localPath),
		objectKey:  objectKey,
		sizeBytes:  sizeBytes,
		capturedAt: capturedAt.UTC(),
		uploadedAt: now,
		expiresAt:  now.Add(ttl),
	}, nil
}

// ReconstructCaptureRecord восстанавливает запись из хранилища (для Repository)
func ReconstructCaptureRecord(id, deviceID, fileName, objectKey string, sizeBytes int64, capturedAt, uploadedAt, expiresAt time.Time) *CaptureRecord {
	return &CaptureRecord{
		id:         id,
		deviceID:   deviceID,
		fileName:   fileName,
		objectKey:  objectKey,
		sizeBytes:  sizeBytes,
		capturedAt: capturedAt,
		uploadedAt: uploadedAt,
		expiresAt:  expiresAt,
	}
}

func (r *CaptureRecord) ID() string            { return r.id }
func (r *CaptureRecord) DeviceID() string      { return r.deviceID }
func (r *CaptureRecord) FileName() string      { return r.fileName }
func (r *CaptureRecord) ObjectKey() string     { return r.objectKey }
func (r *CaptureRecord) SizeBytes() int64      { return r.sizeBytes }
func (r *CaptureRecord) CapturedAt() time.Time { return r.capturedAt }
func (r *CaptureRecord) UploadedAt() time.Time { return r.uploadedAt }
func (r *CaptureRecord) ExpiresAt() time.Time  { return r.expiresAt }

// UploadLatency время от съемки до выгрузки
func (r *CaptureRecord) UploadLatency() time.Duration {
	return r.uploadedAt.Sub(r.capturedAt)
}

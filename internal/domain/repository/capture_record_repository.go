package repository

import (
	"context"

	"github.com/dreschagin/motion-camera/internal/domain/entity"
)

// CaptureRecordRepository определяет интерфейс хранения записей о выгруженных снимках
// Реализация в Infrastructure слое (DynamoDB)
type CaptureRecordRepository interface {
	// Save сохраняет одну запись
	Save(ctx context.Context, record *entity.CaptureRecord) error

	// SaveBatch сохраняет несколько записей
	SaveBatch(ctx context.Context, records []*entity.CaptureRecord) error

	// ListRecent возвращает последние записи устройства, новые первыми
	ListRecent(ctx context.Context, deviceID string, limit int) ([]*entity.CaptureRecord, error)
}

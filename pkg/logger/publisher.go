package logger

import (
	"context"
	"time"
)

// Severity уровень записи, уходящей во внешнее хранилище логов
type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Entry структурированная запись лога для отправки с устройства
type Entry struct {
	Timestamp time.Time
	Level     Severity
	Message   string
	Fields    map[string]interface{}
}

// Publisher принимает записи логгера. Publish вызывается на каждой записи и не должен ждать сети.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

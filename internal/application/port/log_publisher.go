package port

import (
	"context"

	"github.com/dreschagin/motion-camera/pkg/logger"
)

// LogLevel represents the severity of a log entry.
type LogLevel = logger.Severity

const (
	LogLevelDebug = logger.SeverityDebug
	LogLevelInfo  = logger.SeverityInfo
	LogLevelWarn  = logger.SeverityWarn
	LogLevelError = logger.SeverityError
)

// LogEntry is a structured log line shipped off the device.
type LogEntry = logger.Entry

// LogPublisher ships log entries to an external log store.
// Any LogPublisher can be attached with logger.SetLogPublisher.
type LogPublisher interface {
	logger.Publisher

	// PublishBatch buffers multiple entries.
	PublishBatch(ctx context.Context, entries []LogEntry) error

	// Flush sends buffered entries. Called on shutdown.
	Flush(ctx context.Context) error
}

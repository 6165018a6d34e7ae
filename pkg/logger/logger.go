package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

type Logger struct {
	logger *log.Logger
	level  Level
	fields []interface{}

	// общий для всех производных логгеров (With)
	sink *publisherSink
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

type publisherSink struct {
	mu        sync.RWMutex
	publisher Publisher
}

func New(level string) *Logger {
	l := &Logger{
		logger: log.New(os.Stdout, "", 0),
		level:  parseLevel(level),
		sink:   &publisherSink{},
	}
	return l
}

func parseLevel(level string) Level {
	switch level {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLogPublisher дублирует записи уровня INFO и выше во внешний publisher (CloudWatch Logs).
// nil отключает отправку.
func (l *Logger) SetLogPublisher(publisher Publisher) {
	l.sink.mu.Lock()
	l.sink.publisher = publisher
	l.sink.mu.Unlock()
}

// With возвращает логгер, который добавляет поля ко всем записям
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)

	return &Logger{
		logger: l.logger,
		level:  l.level,
		fields: fields,
		sink:   l.sink,
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log(SeverityDebug, msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log(SeverityInfo, msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log(SeverityWarn, msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log(SeverityError, msg, args...)
	}
}

func (l *Logger) log(level Severity, msg string, args ...interface{}) {
	now := time.Now()
	all := append(append([]interface{}{}, l.fields...), args...)

	message := fmt.Sprintf("[%s] [%s] %s", now.Format("2006-01-02 15:04:05"), level, msg)

	if len(all) > 0 {
		message += " |"
		for i := 0; i < len(all); i += 2 {
			if i+1 < len(all) {
				message += fmt.Sprintf(" %v=%v", all[i], all[i+1])
			}
		}
	}

	l.logger.Println(message)

	if level != SeverityDebug {
		l.publish(now, level, msg, all)
	}
}

func (l *Logger) publish(ts time.Time, level Severity, msg string, args []interface{}) {
	l.sink.mu.RLock()
	publisher := l.sink.publisher
	l.sink.mu.RUnlock()

	if publisher == nil {
		return
	}

	fields := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}

	// Publish только буферизует, сетевой вызов происходит во flushLoop
	_ = publisher.Publish(context.Background(), Entry{
		Timestamp: ts,
		Level:     level,
		Message:   msg,
		Fields:    fields,
	})
}

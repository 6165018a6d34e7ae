package port

import (
	"context"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// SignedURLRequester отправляет запрос на пачку подписанных URL (Port)
type SignedURLRequester interface {
	RequestSignedURLs(ctx context.Context, request dto.SignedURLRequest) error
}

// SignedURLChannel канал запрос/ответ для подписанных URL (MQTT или NATS).
// Ответ приходит JSON-массивом строк на топик ReplyTo.
type SignedURLChannel interface {
	SignedURLRequester

	// Subscribe регистрирует обработчик ответов
	Subscribe(ctx context.Context, handler func(urls []string)) error

	// ReplyTo топик ответов, уникальный для устройства
	ReplyTo() string

	Close() error
}

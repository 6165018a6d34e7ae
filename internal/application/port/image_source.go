package port

import (
	"context"
	"image"

	"github.com/dreschagin/motion-camera/internal/application/dto"
)

// ThumbnailExtractor извлекает встроенную миниатюру снимка и возвращает путь к ней
type ThumbnailExtractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}

// FrameLoader декодирует файл миниатюры в кадр
type FrameLoader interface {
	Load(path string) (image.Image, error)
}

// ImageStore операции с файлами снимков
type ImageStore interface {
	// Move переносит файл в каталог dstDir и возвращает новый путь
	Move(src, dstDir string) (string, error)
	ReadFile(path string) ([]byte, error)
	Remove(path string) error
}

// CaptureSource поток событий каталога съемки
type CaptureSource interface {
	Events() <-chan dto.CaptureEvent
}

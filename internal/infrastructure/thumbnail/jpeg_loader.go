package thumbnail

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
)

// JPEGLoader декодирует миниатюру стандартным декодером JPEG
type JPEGLoader struct{}

func NewJPEGLoader() *JPEGLoader {
	return &JPEGLoader{}
}

func (l *JPEGLoader) Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open thumbnail: %w", err)
	}
	defer f.Close()

	frame, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode thumbnail %s: %w", path, err)
	}
	return frame, nil
}

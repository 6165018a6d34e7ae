package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	DefaultCommand = "exiv2"
	DefaultSuffix  = "-preview1"
)

// Exiv2Extractor извлекает первое встроенное превью снимка внешней утилитой exiv2.
// exiv2 пишет превью рядом со снимком как <имя><suffix><расширение>.
type Exiv2Extractor struct {
	command string
	suffix  string
}

func NewExiv2Extractor(command, suffix string) *Exiv2Extractor {
	if command == "" {
		command = DefaultCommand
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &Exiv2Extractor{command: command, suffix: suffix}
}

func (e *Exiv2Extractor) Extract(ctx context.Context, imagePath string) (string, error) {
	dir := filepath.Dir(imagePath)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command, "-ep1", "-l", dir, imagePath)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed for %s: %w: %s", e.command, imagePath, err, strings.TrimSpace(output.String()))
	}

	return e.ThumbnailPath(imagePath), nil
}

// ThumbnailPath путь, по которому exiv2 сохраняет превью снимка
func (e *Exiv2Extractor) ThumbnailPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + e.suffix + ext
}

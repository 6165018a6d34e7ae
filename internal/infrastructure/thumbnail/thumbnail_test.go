package thumbnail

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestExiv2Extractor_ThumbnailPath(t *testing.T) {
	tests := []struct {
		name      string
		suffix    string
		imagePath string
		want      string
	}{
		{"default suffix", "", "/image-temp/2026-03-01_120000.jpg", "/image-temp/2026-03-01_120000-preview1.jpg"},
		{"custom suffix", "-thumb", "/image-temp/a.jpg", "/image-temp/a-thumb.jpg"},
		{"dots in name", "", "/image-temp/cam.01.jpg", "/image-temp/cam.01-preview1.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewExiv2Extractor("", tt.suffix).ThumbnailPath(tt.imagePath)
			if got != tt.want {
				t.Fatalf("ThumbnailPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExiv2Extractor_CommandFailure(t *testing.T) {
	extractor := NewExiv2Extractor(filepath.Join(t.TempDir(), "missing-exiv2"), "")

	if _, err := extractor.Extract(context.Background(), "/image-temp/a.jpg"); err == nil {
		t.Fatalf("expected error for missing command")
	}
}

func TestJPEGLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thumb.jpg")

	src := image.NewNRGBA(image.Rect(0, 0, 20, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 20; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := jpeg.Encode(f, src, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	f.Close()

	frame, err := NewJPEGLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if frame.Bounds().Dx() != 20 || frame.Bounds().Dy() != 16 {
		t.Fatalf("unexpected bounds %v", frame.Bounds())
	}
}

func TestJPEGLoader_NotJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thumb.jpg")
	if err := os.WriteFile(path, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := NewJPEGLoader().Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

package service

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
)

// maxColorDistance = sqrt(255² * 3)
var maxColorDistance = math.Sqrt(3 * 255 * 255)

// ErrFrameSizeMismatch кадры разного размера сравнивать нельзя
var ErrFrameSizeMismatch = errors.New("frame size mismatch")

// MotionDetector сравнивает два кадра внутри заданных областей (Domain Service)
type MotionDetector struct{}

// NewMotionDetector создает новый MotionDetector
func NewMotionDetector() *MotionDetector {
	return &MotionDetector{}
}

// Detect возвращает true на первом пикселе, отличие которого в процентах >= sensitivity.
// Обход каждой области по столбцам: x внешний цикл, y внутренний.
// Пустой набор областей движение не находит.
// Пиксель без отличия не срабатывает и при sensitivity 0: одинаковые кадры движения не дают.
func (d *MotionDetector) Detect(newFrame, prevFrame image.Image, regions []valueobject.HotspotRegion, sensitivity float64) (bool, error) {
	if newFrame == nil || prevFrame == nil {
		return false, errors.New("frame cannot be nil")
	}

	newBounds, prevBounds := newFrame.Bounds(), prevFrame.Bounds()
	if newBounds.Dx() != prevBounds.Dx() || newBounds.Dy() != prevBounds.Dy() {
		return false, fmt.Errorf("%w: %dx%d vs %dx%d", ErrFrameSizeMismatch,
			newBounds.Dx(), newBounds.Dy(), prevBounds.Dx(), prevBounds.Dy())
	}

	for _, region := range regions {
		if !region.Valid(newBounds.Dx(), newBounds.Dy()) {
			continue
		}

		for x := region.Left; x < region.Left+region.Width; x++ {
			for y := region.Top; y < region.Top+region.Height; y++ {
				a := newFrame.At(newBounds.Min.X+x, newBounds.Min.Y+y)
				b := prevFrame.At(prevBounds.Min.X+x, prevBounds.Min.Y+y)

				ratio := PixelDistanceRatio(a, b)
				if ratio > 0 && ratio*100 >= sensitivity {
					return true, nil
				}
			}
		}
	}

	return false, nil
}

// PixelDistanceRatio евклидово расстояние между цветами в RGB, нормированное в [0,1].
// Альфа-канал не учитывается.
func PixelDistanceRatio(a, b color.Color) float64 {
	ca := color.NRGBAModel.Convert(a).(color.NRGBA)
	cb := color.NRGBAModel.Convert(b).(color.NRGBA)

	dr := float64(ca.R) - float64(cb.R)
	dg := float64(ca.G) - float64(cb.G)
	db := float64(ca.B) - float64(cb.B)

	distance := math.Sqrt(dr*dr + dg*dg + db*db)
	if distance == 0 {
		return 0
	}

	return distance / maxColorDistance
}

// SolidFrame создает кадр width x height, залитый одним цветом
func SolidFrame(width, height int, c color.Color) *image.NRGBA {
	frame := image.NewNRGBA(image.Rect(0, 0, width, height))
	fill := color.NRGBAModel.Convert(c).(color.NRGBA)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			frame.SetNRGBA(x, y, fill)
		}
	}

	return frame
}

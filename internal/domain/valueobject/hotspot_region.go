package valueobject

import (
	"fmt"
	"math"
)

// HotspotRegion прямоугольная область кадра в пикселях, внутри которой ищется движение (Value Object)
type HotspotRegion struct {
	Top    int
	Left   int
	Width  int
	Height int
}

// NewHotspotRegionFromPercent переводит проценты в пиксели для кадра frameWidth x frameHeight
func NewHotspotRegionFromPercent(left, top, width, height float64, frameWidth, frameHeight int) HotspotRegion {
	return HotspotRegion{
		Left:   PercentToPixels(left, frameWidth),
		Top:    PercentToPixels(top, frameHeight),
		Width:  PercentToPixels(width, frameWidth),
		Height: PercentToPixels(height, frameHeight),
	}
}

// PercentToPixels = round(percent/100 * total), округление половины от нуля (math.Round)
func PercentToPixels(percent float64, total int) int {
	return int(math.Round(percent / 100 * float64(total)))
}

// Valid проверяет, что область целиком лежит внутри кадра и не вырождена
func (r HotspotRegion) Valid(frameWidth, frameHeight int) bool {
	if r.Left < 0 || r.Left > frameWidth || r.Top < 0 || r.Top > frameHeight {
		return false
	}
	if r.Width <= 0 || r.Width > frameWidth || r.Height <= 0 || r.Height > frameHeight {
		return false
	}
	return r.Left+r.Width <= frameWidth && r.Top+r.Height <= frameHeight
}

// Pixels возвращает площадь области
func (r HotspotRegion) Pixels() int {
	return r.Width * r.Height
}

func (r HotspotRegion) String() string {
	return fmt.Sprintf("left=%d top=%d width=%d height=%d", r.Left, r.Top, r.Width, r.Height)
}

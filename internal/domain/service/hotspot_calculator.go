package service

import (
	"strconv"
	"strings"

	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
)

const (
	// DefaultHotspots весь кадр
	DefaultHotspots = "0,0,100,100"

	regionSeparator = "|"
	valueSeparator  = ","
)

// HotspotCalculator переводит строку областей в пиксельные области кадра (Domain Service).
// Формат строки: "left,top,width,height|left,top,width,height" в процентах.
type HotspotCalculator struct{}

// NewHotspotCalculator создает новый HotspotCalculator
func NewHotspotCalculator() *HotspotCalculator {
	return &HotspotCalculator{}
}

// Parse разбирает строку и возвращает только корректные области.
// Некорректные кортежи (не 4 числа, выход за границы кадра) отбрасываются по одному.
func (c *HotspotCalculator) Parse(hotspots string, frameWidth, frameHeight int) []valueobject.HotspotRegion {
	regions := make([]valueobject.HotspotRegion, 0)

	for _, tuple := range strings.Split(hotspots, regionSeparator) {
		values, ok := parseTuple(tuple)
		if !ok {
			continue
		}

		region := valueobject.NewHotspotRegionFromPercent(values[0], values[1], values[2], values[3], frameWidth, frameHeight)
		if region.Valid(frameWidth, frameHeight) {
			regions = append(regions, region)
		}
	}

	return regions
}

// Resolve как Parse, но при пустом результате подставляет DefaultHotspots.
// Если и область по умолчанию некорректна (вырожденный кадр), возвращается пустой набор:
// детектор с пустым набором движение не находит.
func (c *HotspotCalculator) Resolve(hotspots string, frameWidth, frameHeight int) []valueobject.HotspotRegion {
	regions := c.Parse(hotspots, frameWidth, frameHeight)
	if len(regions) > 0 {
		return regions
	}
	return c.Parse(DefaultHotspots, frameWidth, frameHeight)
}

func parseTuple(tuple string) ([4]float64, bool) {
	var values [4]float64

	parts := strings.Split(strings.TrimSpace(tuple), valueSeparator)
	if len(parts) != len(values) {
		return values, false
	}

	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return values, false
		}
		values[i] = v
	}

	return values, true
}

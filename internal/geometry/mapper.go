// Package geometry converts between wall-clock time and timeline pixels.
package geometry

import (
	"math"
	"time"
)

const (
	DefaultMinutesPerPixel = 0.6
	DefaultGridPx          = 25
	DefaultBaselineHour    = 9
	DefaultEndHour         = 22
)

// Mapper holds the linear scale and snap grid of one timeline.
type Mapper struct {
	MinutesPerPixel float64
	GridPx          int
	SnapToGrid      bool
	BaselineHour    int
	// EndHour is the local hour at the right edge of the timeline. Zero or
	// anything not after BaselineHour leaves the timeline unbounded.
	EndHour int
}

// Default returns the mapper used by the day timeline: 0.6 minutes per
// pixel, a 25 px grid with snapping enabled, 09:00 to 22:00.
func Default() Mapper {
	return Mapper{
		MinutesPerPixel: DefaultMinutesPerPixel,
		GridPx:          DefaultGridPx,
		SnapToGrid:      true,
		BaselineHour:    DefaultBaselineHour,
		EndHour:         DefaultEndHour,
	}
}

// Extent is the pixel width of the visible timeline, or 0 when unbounded.
func (m Mapper) Extent() float64 {
	if m.EndHour <= m.BaselineHour {
		return 0
	}
	return m.MinutesToPixels(float64((m.EndHour - m.BaselineHour) * 60))
}

// Baseline returns the timeline origin for the calendar date of day, in
// day's location.
func (m Mapper) Baseline(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, m.BaselineHour, 0, 0, 0, day.Location())
}

// TimeToPixel returns the unrounded pixel offset of t from base.
func (m Mapper) TimeToPixel(t, base time.Time) float64 {
	return t.Sub(base).Minutes() / m.MinutesPerPixel
}

// PixelToTime is the inverse of TimeToPixel, rounded to the second.
func (m Mapper) PixelToTime(px float64, base time.Time) time.Time {
	secs := math.Round(px * m.MinutesPerPixel * 60)
	return base.Add(time.Duration(secs) * time.Second)
}

// MinutesToPixels converts a duration in minutes to a pixel length.
func (m Mapper) MinutesToPixels(minutes float64) float64 {
	return minutes / m.MinutesPerPixel
}

// PixelsToMinutes converts a pixel offset to whole minutes.
func (m Mapper) PixelsToMinutes(px float64) int {
	return int(math.Round(px * m.MinutesPerPixel))
}

// Snap rounds px to the nearest grid line regardless of SnapToGrid.
func (m Mapper) Snap(px float64) float64 {
	if m.GridPx <= 0 {
		return px
	}
	g := float64(m.GridPx)
	return math.Round(px/g) * g
}

// Quantize snaps px when snapping is enabled and returns it unchanged
// otherwise.
func (m Mapper) Quantize(px float64) float64 {
	if !m.SnapToGrid {
		return px
	}
	return m.Snap(px)
}

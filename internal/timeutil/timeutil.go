package timeutil

import (
	"fmt"
	"math"
	"time"
)

// Elapsed is a span broken into unbounded hours plus minutes and seconds in [0, 59].
type Elapsed struct {
	Hours   int64 `json:"hours"`
	Minutes int   `json:"minutes"`
	Seconds int   `json:"seconds"`
}

// Between decomposes end-start. Spans where end precedes start are clamped to zero.
func Between(start, end time.Time) Elapsed {
	return FromDuration(end.Sub(start))
}

// Since is Between(start, now) with the reference time passed explicitly.
func Since(start, now time.Time) Elapsed {
	return Between(start, now)
}

// FromDuration decomposes d, truncating sub-second precision.
func FromDuration(d time.Duration) Elapsed {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return Elapsed{
		Hours:   total / 3600,
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

func (e Elapsed) TotalSeconds() int64 {
	return e.Hours*3600 + int64(e.Minutes)*60 + int64(e.Seconds)
}

// HoursFloat is the span in fractional hours.
func (e Elapsed) HoursFloat() float64 {
	return float64(e.TotalSeconds()) / 3600
}

// String renders HH:MM:SS; hours grow past two digits instead of wrapping into days.
func (e Elapsed) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", e.Hours, e.Minutes, e.Seconds)
}

// FormatClock renders d as HH:MM:SS.
func FormatClock(d time.Duration) string {
	return FromDuration(d).String()
}

// FormatDuration renders fractional hours as "3h 12m", or "12m" below one hour.
func FormatDuration(hours float64) string {
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return "0m"
	}
	whole := math.Floor(hours)
	minutes := math.Round((hours - whole) * 60)
	if minutes >= 60 {
		whole++
		minutes = 0
	}
	if whole == 0 {
		return fmt.Sprintf("%dm", int64(minutes))
	}
	return fmt.Sprintf("%dh %dm", int64(whole), int64(minutes))
}

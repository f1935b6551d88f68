package timeutil

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBetween_SumsToWholeSeconds(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	spans := []time.Duration{
		0,
		999 * time.Millisecond,
		time.Second,
		59*time.Minute + 59*time.Second + 999*time.Millisecond,
		3*time.Hour + 25*time.Minute + 7*time.Second + 400*time.Millisecond,
		125 * time.Hour,
		49*time.Hour + 1*time.Second,
	}

	for _, span := range spans {
		e := Between(start, start.Add(span))
		assert.Equal(t, int64(span/time.Second), e.Hours*3600+int64(e.Minutes)*60+int64(e.Seconds), "span %s", span)
		assert.GreaterOrEqual(t, e.Minutes, 0)
		assert.LessOrEqual(t, e.Minutes, 59)
		assert.GreaterOrEqual(t, e.Seconds, 0)
		assert.LessOrEqual(t, e.Seconds, 59)
	}
}

func TestBetween_HoursAreUnbounded(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	e := Between(start, start.Add(125*time.Hour+30*time.Second))
	assert.Equal(t, Elapsed{Hours: 125, Minutes: 0, Seconds: 30}, e)
	assert.Equal(t, "125:00:30", e.String())
}

func TestBetween_NegativeSpanClampsToZero(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	e := Between(start, start.Add(-90*time.Second))
	assert.Equal(t, Elapsed{}, e)
	assert.Equal(t, "00:00:00", e.String())
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "01:45:00", FormatClock(105*time.Minute))
	assert.Equal(t, "125:00:00", FormatClock(125*time.Hour))
	assert.Equal(t, "00:00:09", FormatClock(9*time.Second+999*time.Millisecond))
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, "0m"},
		{1.0, "1h 0m"},
		{1.999, "2h 0m"},
		{0.5, "30m"},
		{0.9999, "1h 0m"},
		{2.25, "2h 15m"},
		{-3, "0m"},
		{math.NaN(), "0m"},
		{math.Inf(1), "0m"},
		{math.Inf(-1), "0m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.hours), "hours=%v", tc.hours)
	}
}

func TestUrgencyBand_Boundaries(t *testing.T) {
	assert.Equal(t, BandFresh, UrgencyBand(0))
	assert.Equal(t, BandFresh, UrgencyBand(4.99))
	assert.Equal(t, BandAging, UrgencyBand(5.0))
	assert.NotEqual(t, UrgencyBand(4.99), UrgencyBand(5.0))
	assert.Equal(t, BandStale, UrgencyBand(10))
	assert.Equal(t, BandOverdue, UrgencyBand(15))
	assert.Equal(t, BandOverdue, UrgencyBand(23.99))
	assert.Equal(t, BandCritical, UrgencyBand(24))
	assert.Equal(t, BandCritical, UrgencyBand(1000))
}

func TestBand_JSON(t *testing.T) {
	raw, err := BandOverdue.MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `"overdue"`, string(raw))
}

func TestSince_UsesExplicitNow(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	now := created.Add(6*time.Hour + 15*time.Minute)
	e := Since(created, now)
	assert.Equal(t, "06:15:00", e.String())
	assert.Equal(t, BandAging, UrgencyBand(e.HoursFloat()))
}

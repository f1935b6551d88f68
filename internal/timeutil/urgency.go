package timeutil

import "encoding/json"

// Band buckets how long something has been outstanding, freshest first.
type Band int

const (
	BandFresh Band = iota
	BandAging
	BandStale
	BandOverdue
	BandCritical
)

var bandNames = [...]string{"fresh", "aging", "stale", "overdue", "critical"}

// UrgencyBand maps elapsed hours to a band. Each band includes its lower bound,
// so exactly 5h is BandAging.
func UrgencyBand(hours float64) Band {
	switch {
	case hours < 5:
		return BandFresh
	case hours < 10:
		return BandAging
	case hours < 15:
		return BandStale
	case hours < 24:
		return BandOverdue
	default:
		return BandCritical
	}
}

func (b Band) String() string {
	if b < BandFresh || b > BandCritical {
		return "unknown"
	}
	return bandNames[b]
}

func (b Band) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

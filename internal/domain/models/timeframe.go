package models

// Timeframe represents a sentiment horizon.
type Timeframe string

const (
	TF30Min Timeframe = "30min"
	TF1Day  Timeframe = "1day"
	TF3Day  Timeframe = "3day"
	TF1Week Timeframe = "1week"
)

// AllTimeframes lists horizons in ascending order.
var AllTimeframes = []Timeframe{TF30Min, TF1Day, TF3Day, TF1Week}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF30Min, TF1Day, TF3Day, TF1Week:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1Day }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

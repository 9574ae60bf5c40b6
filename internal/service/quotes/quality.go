package quotes

import (
	"math"

	"SectorPulse/internal/domain/models"
)

// Penalties applied to a quote's quality score, starting from 1.0.
const (
	penaltyMissing     = 0.3
	penaltyImplausible = 0.2
	penaltyNoAvgVolume = 0.1
	penaltyLargeSwing  = 0.1
	penaltyNoExtra     = 0.05

	largeSwingPct = 50.0
)

// PriceBand is the sane range for a quoted price.
type PriceBand struct {
	Min float64
	Max float64
}

func (b PriceBand) contains(v float64) bool {
	return v > 0 && v >= b.Min && v <= b.Max && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ScoreQuote rates completeness and plausibility of q in [0, 1].
func ScoreQuote(q models.Quote, band PriceBand) float64 {
	score := 1.0

	for _, p := range []*float64{q.Price, q.PreviousClose} {
		switch {
		case p == nil:
			score -= penaltyMissing
		case !band.contains(*p):
			score -= penaltyImplausible
		}
	}
	switch {
	case q.Volume == nil:
		score -= penaltyMissing
	case *q.Volume <= 0:
		score -= penaltyImplausible
	}
	if q.AvgVolume == nil {
		score -= penaltyNoAvgVolume
	}
	// swing only counts once both prices already passed the band check
	if usable(q, band) {
		if math.Abs((*q.Price-*q.PreviousClose) / *q.PreviousClose * 100) > largeSwingPct {
			score -= penaltyLargeSwing
		}
	}

	switch q.Source {
	case models.SourceA:
		if q.MarketCap == nil {
			score -= penaltyNoExtra
		}
	case models.SourceB:
		if q.Bid == nil {
			score -= penaltyNoExtra
		}
		if q.Ask == nil {
			score -= penaltyNoExtra
		}
	}

	if score < 0 {
		return 0
	}
	return math.Round(score*1000) / 1000
}

// usable reports whether q can become an observation: both prices present
// and inside the band.
func usable(q models.Quote, band PriceBand) bool {
	return q.Price != nil && q.PreviousClose != nil &&
		band.contains(*q.Price) && band.contains(*q.PreviousClose)
}

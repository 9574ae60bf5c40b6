package sentiment

import (
	"errors"
	"fmt"

	"SectorPulse/internal/domain/models"
)

// TimeframeMultipliers derive other horizons from the daily move.
type TimeframeMultipliers struct {
	Min30 float64
	Day3  float64
	Week1 float64
}

// DefaultTimeframeMultipliers are 0.3 / 2.5 / 4.0.
var DefaultTimeframeMultipliers = TimeframeMultipliers{Min30: 0.3, Day3: 2.5, Week1: 4.0}

type bound struct{ lo, hi float64 }

var multiplierBounds = map[models.Timeframe]bound{
	models.TF30Min: {0.1, 0.8},
	models.TF3Day:  {1.5, 3.5},
	models.TF1Week: {2.5, 6.0},
}

// Validate checks every multiplier lies within its documented band.
func (m TimeframeMultipliers) Validate() error {
	var errs []error
	for tf, v := range map[models.Timeframe]float64{
		models.TF30Min: m.Min30,
		models.TF3Day:  m.Day3,
		models.TF1Week: m.Week1,
	} {
		b := multiplierBounds[tf]
		if v < b.lo || v > b.hi {
			errs = append(errs, fmt.Errorf("%s multiplier %v outside [%v, %v]", tf, v, b.lo, b.hi))
		}
	}
	return errors.Join(errs...)
}

const approximationMethod = "daily_multiplier"

// Approximate scales the daily move into the other horizons. The result is
// always flagged as approximated: it is not real intraday or weekly data.
func (m TimeframeMultipliers) Approximate(daily float64) models.TimeframeApproximation {
	return models.TimeframeApproximation{
		Daily: Round3(daily),
		Estimates: map[models.Timeframe]float64{
			models.TF30Min: Round3(daily * m.Min30),
			models.TF1Day:  Round3(daily),
			models.TF3Day:  Round3(daily * m.Day3),
			models.TF1Week: Round3(daily * m.Week1),
		},
		Approximated: true,
		Method:       approximationMethod,
	}
}

// ApproximateScores turns a daily alpha into per-timeframe sentiment scores.
func (m TimeframeMultipliers) ApproximateScores(dailyAlpha float64) map[models.Timeframe]float64 {
	est := m.Approximate(dailyAlpha).Estimates
	out := make(map[models.Timeframe]float64, len(est))
	for tf, move := range est {
		out[tf] = Classify(move).Score
	}
	return out
}

package sentiment

import (
	"math"

	"SectorPulse/internal/domain/models"
)

// Relative strength thresholds on alpha, in percentage points.
const (
	strongOutperform   = 2.0
	outperform         = 0.5
	underperform       = -0.5
	strongUnderperform = -2.0
)

// Alpha is round3(sector - benchmark).
func Alpha(sectorPerf, benchmarkPerf float64) float64 {
	return Round3(sectorPerf - benchmarkPerf)
}

// ClassifyRelativeStrength buckets alpha. Defined for every float; NaN is NEUTRAL.
func ClassifyRelativeStrength(alpha float64) models.RelativeStrength {
	switch {
	case math.IsNaN(alpha):
		return models.NeutralStrength
	case alpha > strongOutperform:
		return models.StrongOutperform
	case alpha > outperform:
		return models.Outperform
	case alpha > underperform:
		return models.NeutralStrength
	case alpha > strongUnderperform:
		return models.Underperform
	default:
		return models.StrongUnderperform
	}
}

// ScoreFromMove maps a percentage move (alpha, or a timeframe's weighted
// change) into [-1, 1]. Up to |10| it is linear; beyond that it is compressed
// into (0.8, 1.0) so extreme readings stay distinguishable.
func ScoreFromMove(move float64) float64 {
	if math.IsNaN(move) || move == 0 {
		return 0
	}
	sign := 1.0
	if move < 0 {
		sign = -1.0
	}
	a := math.Abs(move)
	if a <= 10 {
		return sign * math.Min(1.0, a/10)
	}
	return sign * (0.8 + 0.2*(1-math.Exp(-(a-10)/20)))
}

// ClassifyColor maps a score onto the five half-open buckets:
// (-inf,-0.6] (-0.6,-0.2] (-0.2,0.2) [0.2,0.6) [0.6,1.0].
func ClassifyColor(score float64) models.Color {
	switch {
	case math.IsNaN(score):
		return models.BlueNeutral
	case score >= 1.0:
		return models.DarkGreen
	case score <= -0.6:
		return models.DarkRed
	case score <= -0.2:
		return models.LightRed
	case score < 0.2:
		return models.BlueNeutral
	case score < 0.6:
		return models.LightGreen
	default:
		return models.DarkGreen
	}
}

// SignalFor maps a color to its trading signal.
func SignalFor(c models.Color) models.TradingSignal {
	switch c {
	case models.DarkRed:
		return models.SignalPrimeShorting
	case models.LightRed:
		return models.SignalGoodShorting
	case models.BlueNeutral:
		return models.SignalNeutral
	case models.LightGreen:
		return models.SignalAvoidShorts
	case models.DarkGreen:
		return models.SignalDoNotShort
	}
	// unreachable for the five declared colors
	return models.SignalNeutral
}

// Classification is the score, color and signal for one move.
type Classification struct {
	Score  float64
	Color  models.Color
	Signal models.TradingSignal
}

// Classify scores a move, rounds it and classifies the rounded score so the
// published number and color always agree.
func Classify(move float64) Classification {
	score := Round3(ScoreFromMove(move))
	color := ClassifyColor(score)
	return Classification{Score: score, Color: color, Signal: SignalFor(color)}
}

// ClassifyScore classifies an already computed score, such as a blend.
func ClassifyScore(score float64) Classification {
	score = Round3(math.Max(-1, math.Min(1, score)))
	color := ClassifyColor(score)
	return Classification{Score: score, Color: color, Signal: SignalFor(color)}
}

package sentiment

import (
	"fmt"
	"math"

	"SectorPulse/internal/domain/models"
)

// DefaultBlendWeights emphasize the daily figure.
var DefaultBlendWeights = map[models.Timeframe]float64{
	models.TF30Min: 0.25,
	models.TF1Day:  0.40,
	models.TF3Day:  0.25,
	models.TF1Week: 0.10,
}

// Blender combines per-timeframe scores into one.
type Blender struct {
	weights map[models.Timeframe]float64
}

// NewBlender validates weights: known timeframes, non-negative, summing to 1.
// A nil map selects the defaults.
func NewBlender(weights map[string]float64) (*Blender, error) {
	if len(weights) == 0 {
		return &Blender{weights: DefaultBlendWeights}, nil
	}
	w := make(map[models.Timeframe]float64, len(weights))
	sum := 0.0
	for k, v := range weights {
		tf := models.Timeframe(k)
		if !models.IsValidTimeframe(tf) {
			return nil, fmt.Errorf("unknown timeframe %q in blend weights", k)
		}
		if v < 0 {
			return nil, fmt.Errorf("blend weight for %s must be >= 0", k)
		}
		w[tf] = v
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("blend weights must sum to 1.0, got %v", sum)
	}
	return &Blender{weights: w}, nil
}

// Blend returns the weighted score. Missing timeframes are dropped and the
// remaining weights renormalized.
func (b *Blender) Blend(scores map[models.Timeframe]float64) float64 {
	var sum, wsum float64
	for _, tf := range models.AllTimeframes {
		s, ok := scores[tf]
		if !ok {
			continue
		}
		w := b.weights[tf]
		sum += s * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// BlendConfidence is 0.7*max(0, 1-variance) + 0.3*min(stocks/50, 1), where
// variance is the population variance of the timeframe scores.
func BlendConfidence(scores map[models.Timeframe]float64, stocks int) float64 {
	consistency := 0.0
	if len(scores) > 0 {
		var mean float64
		for _, s := range scores {
			mean += s
		}
		mean /= float64(len(scores))
		var v float64
		for _, s := range scores {
			v += (s - mean) * (s - mean)
		}
		v /= float64(len(scores))
		consistency = math.Max(0, 1-v)
	}
	adequacy := math.Min(float64(max(stocks, 0))/50, 1)
	return Round3(clamp01(0.7*consistency + 0.3*adequacy))
}

// TimeframePerformance volume-weights each symbol's move per timeframe and
// applies the sector multiplier. Returns per-timeframe performance and the
// number of symbols that contributed.
func (e *Engine) TimeframePerformance(sector string, rows []models.TimeframeChanges) (map[models.Timeframe]float64, int) {
	mult := e.Multiplier(sector)
	sums := make(map[models.Timeframe]float64, len(models.AllTimeframes))
	weights := make(map[models.Timeframe]float64, len(models.AllTimeframes))
	used := 0
	for _, r := range rows {
		if len(r.Changes) == 0 {
			continue
		}
		used++
		w := VolumeWeight(r.Volume, r.AvgVolume)
		for tf, ch := range r.Changes {
			if math.IsNaN(ch) || math.IsInf(ch, 0) {
				continue
			}
			sums[tf] += ch * mult * w
			weights[tf] += w
		}
	}
	out := make(map[models.Timeframe]float64, len(sums))
	for tf, s := range sums {
		if weights[tf] > 0 {
			out[tf] = Round3(s / weights[tf])
		}
	}
	return out, used
}

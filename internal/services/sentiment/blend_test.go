package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
)

func TestBlender_DefaultWeights(t *testing.T) {
	b, err := NewBlender(nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, b.Blend(map[models.Timeframe]float64{
		models.TF30Min: 0.5, models.TF1Day: 0.5, models.TF3Day: 0.5, models.TF1Week: 0.5,
	}), 1e-12)
	assert.InDelta(t, 0.25, b.Blend(map[models.Timeframe]float64{
		models.TF30Min: 1, models.TF1Day: 0, models.TF3Day: 0, models.TF1Week: 0,
	}), 1e-12)
	// only the daily score present: renormalized to itself
	assert.InDelta(t, 0.4, b.Blend(map[models.Timeframe]float64{models.TF1Day: 0.4}), 1e-12)
	assert.Equal(t, 0.0, b.Blend(nil))
}

func TestNewBlender_Rejects(t *testing.T) {
	_, err := NewBlender(map[string]float64{"30min": 0.5, "1day": 0.4})
	assert.Error(t, err)
	_, err = NewBlender(map[string]float64{"2day": 1.0})
	assert.Error(t, err)
	_, err = NewBlender(map[string]float64{"1day": 1.2, "1week": -0.2})
	assert.Error(t, err)

	b, err := NewBlender(map[string]float64{"1day": 0.5, "1week": 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, b.Blend(map[models.Timeframe]float64{models.TF1Day: 0.2, models.TF1Week: 0.4}), 1e-12)
}

func TestBlendConfidence(t *testing.T) {
	same := map[models.Timeframe]float64{models.TF30Min: 0.5, models.TF1Day: 0.5, models.TF3Day: 0.5, models.TF1Week: 0.5}
	assert.Equal(t, 1.0, BlendConfidence(same, 50))
	assert.Equal(t, 0.7, BlendConfidence(same, 0))

	split := map[models.Timeframe]float64{models.TF30Min: 1, models.TF1Day: -1, models.TF3Day: 1, models.TF1Week: -1}
	assert.Equal(t, 0.15, BlendConfidence(split, 25))
	assert.Equal(t, 0.3, BlendConfidence(nil, 500))
}

func TestTimeframePerformance(t *testing.T) {
	e := newEngine(t)
	rows := []models.TimeframeChanges{
		{Symbol: "A", Volume: 2000, AvgVolume: 1000, Changes: map[models.Timeframe]float64{models.TF1Day: 3, models.TF1Week: 9}},
		{Symbol: "B", Volume: 1000, AvgVolume: 1000, Changes: map[models.Timeframe]float64{models.TF1Day: -3}},
		{Symbol: "C"},
	}
	perf, used := e.TimeframePerformance("industrials", rows)
	assert.Equal(t, 2, used)
	assert.Equal(t, 1.0, perf[models.TF1Day]) // (6 - 3) / 3
	assert.Equal(t, 9.0, perf[models.TF1Week])
	_, ok := perf[models.TF30Min]
	assert.False(t, ok)
}

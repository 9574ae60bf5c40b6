package sentiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
)

func TestClassifyColor_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  models.Color
	}{
		{-1.0, models.DarkRed},
		{-0.6, models.DarkRed},
		{-0.599, models.LightRed},
		{-0.2, models.LightRed},
		{-0.199, models.BlueNeutral},
		{0, models.BlueNeutral},
		{0.199, models.BlueNeutral},
		{0.2, models.LightGreen},
		{0.599, models.LightGreen},
		{0.6, models.DarkGreen},
		{0.999, models.DarkGreen},
		{1.0, models.DarkGreen},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyColor(tc.score), "score %v", tc.score)
	}
}

func TestClassify_ScoreAlwaysInRangeAndBucketed(t *testing.T) {
	seen := map[models.Color]bool{}
	for move := -200.0; move <= 200.0; move += 0.37 {
		c := Classify(move)
		require.GreaterOrEqual(t, c.Score, -1.0)
		require.LessOrEqual(t, c.Score, 1.0)
		require.Equal(t, ClassifyColor(c.Score), c.Color)
		require.Equal(t, SignalFor(c.Color), c.Signal)
		seen[c.Color] = true
	}
	assert.Len(t, seen, 5)
}

func TestSignalFor_EveryColor(t *testing.T) {
	want := map[models.Color]models.TradingSignal{
		models.DarkRed:     "PRIME_SHORTING_ENVIRONMENT",
		models.LightRed:    "GOOD_SHORTING_ENVIRONMENT",
		models.BlueNeutral: "NEUTRAL_CAUTIOUS",
		models.LightGreen:  "AVOID_SHORTS",
		models.DarkGreen:   "DO_NOT_SHORT",
	}
	for c, s := range want {
		assert.Equal(t, s, SignalFor(c))
	}
}

func TestAlpha_ZeroOnSelfAndAntisymmetric(t *testing.T) {
	values := []float64{-12.3456, -3.0005, -0.0004, 0, 0.5, 1.0, 2.71828, 4.0, 99.9995}
	for _, a := range values {
		assert.Equal(t, 0.0, Alpha(a, a))
		for _, b := range values {
			assert.True(t, Alpha(a, b) == -Alpha(b, a), "alpha(%v,%v)", a, b)
		}
	}
	assert.Equal(t, 3.0, Alpha(4.0, 1.0))
	assert.Equal(t, -1.5, Alpha(1.0, 2.5))
}

func TestClassifyRelativeStrength_Thresholds(t *testing.T) {
	assert.Equal(t, models.StrongOutperform, ClassifyRelativeStrength(2.001))
	assert.Equal(t, models.Outperform, ClassifyRelativeStrength(2.0))
	assert.Equal(t, models.Outperform, ClassifyRelativeStrength(0.501))
	assert.Equal(t, models.NeutralStrength, ClassifyRelativeStrength(0.5))
	assert.Equal(t, models.NeutralStrength, ClassifyRelativeStrength(-0.499))
	assert.Equal(t, models.Underperform, ClassifyRelativeStrength(-0.5))
	assert.Equal(t, models.Underperform, ClassifyRelativeStrength(-1.999))
	assert.Equal(t, models.StrongUnderperform, ClassifyRelativeStrength(-2.0))
	assert.Equal(t, models.StrongUnderperform, ClassifyRelativeStrength(math.Inf(-1)))
	assert.Equal(t, models.StrongOutperform, ClassifyRelativeStrength(math.Inf(1)))
	assert.Equal(t, models.NeutralStrength, ClassifyRelativeStrength(math.NaN()))
}

func TestClassifyRelativeStrength_Monotonic(t *testing.T) {
	prev := ClassifyRelativeStrength(-50).Rank()
	for alpha := -50.0; alpha <= 50.0; alpha += 0.01 {
		r := ClassifyRelativeStrength(alpha).Rank()
		require.GreaterOrEqual(t, r, prev, "alpha %v", alpha)
		prev = r
	}
}

func TestScoreFromMove_LinearRegion(t *testing.T) {
	c := Classify(3.0)
	assert.Equal(t, 0.3, c.Score)
	assert.Equal(t, models.LightGreen, c.Color)
	assert.Equal(t, models.SignalAvoidShorts, c.Signal)

	assert.Equal(t, 1.0, ScoreFromMove(10))
	assert.Equal(t, -0.55, ScoreFromMove(-5.5))
	assert.Equal(t, 0.0, ScoreFromMove(0))
}

func TestScoreFromMove_CompressesExtremeAlpha(t *testing.T) {
	s := ScoreFromMove(25.0)
	assert.Greater(t, s, 0.8)
	assert.Less(t, s, 1.0)
	assert.InDelta(t, 0.8+0.2*(1-math.Exp(-0.75)), s, 1e-12)
	assert.Equal(t, -s, ScoreFromMove(-25.0))

	// ordering is preserved inside the compressed branch
	assert.Less(t, ScoreFromMove(15), ScoreFromMove(40))
	assert.LessOrEqual(t, ScoreFromMove(1000), 1.0)

	c := Classify(25.0)
	assert.Equal(t, 0.906, c.Score)
	assert.Equal(t, models.DarkGreen, c.Color)
}

func TestClassifyScore_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 1.0, ClassifyScore(1.7).Score)
	assert.Equal(t, models.DarkRed, ClassifyScore(-3).Color)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.235, Round3(1.2345))
	assert.Equal(t, -1.235, Round3(-1.2345))
	assert.Equal(t, 0.0, Round3(math.NaN()))
	assert.Equal(t, 0.0, Round3(math.Inf(1)))
}

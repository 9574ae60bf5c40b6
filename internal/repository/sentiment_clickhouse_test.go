package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
)

func sampleResult() *models.SectorSentimentResult {
	return &models.SectorSentimentResult{
		Sector:               "technology",
		Timeframe:            models.TF1Day,
		Timestamp:            time.Date(2024, 6, 12, 14, 30, 0, 0, time.UTC),
		SentimentScore:       0.3,
		SectorPerformance:    4,
		BenchmarkPerformance: 1,
		Alpha:                3,
		Color:                models.LightGreen,
		Signal:               models.SignalAvoidShorts,
		RelativeStrength:     models.Outperform,
		StockCount:           12,
		DataCoverage:         92.3,
		Confidence:           1,
		VolatilityMultiplier: 1.3,
		AvgVolumeWeight:      1.1,
		CalculationTime:      1500 * time.Millisecond,
		TimeframeScores: map[models.Timeframe]float64{
			models.TF30Min: 0.09,
			models.TF1Day:  0.3,
		},
		TimeframesApproximated: true,
		BenchmarkStatus:        models.CacheCached,
		Quality: models.DataQualityAssessment{
			Sector:      "technology",
			TotalStocks: 13,
			Confidence:  1,
			Flags:       []models.QualityFlag{models.FlagLowStockCount},
		},
	}
}

func TestSentimentRowPreservesResult(t *testing.T) {
	in := sampleResult()

	row, err := toSentimentRow(in)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), row.StockCount)
	assert.Equal(t, uint64(1_500_000_000), row.CalculationNS)
	assert.Equal(t, 0.09, row.TimeframeScores["30min"])
	assert.Len(t, row.values(), len(row.targets()))

	out, err := row.result()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSentimentRowNegativeDurationClamped(t *testing.T) {
	in := sampleResult()
	in.CalculationTime = -time.Second
	row, err := toSentimentRow(in)
	require.NoError(t, err)
	assert.Zero(t, row.CalculationNS)
}

func TestHistoryQueryOpenRange(t *testing.T) {
	q, args := historyQuery("db.t", "energy", models.TF1Week, time.Time{}, time.Time{}, 0)
	assert.NotContains(t, q, "ts >=")
	assert.NotContains(t, q, "LIMIT")
	assert.True(t, strings.HasSuffix(q, "ORDER BY ts DESC"))
	assert.Equal(t, []any{"energy", "1week"}, args)
}

func TestHistoryQueryBounded(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)
	q, args := historyQuery("db.t", "energy", models.TF1Day, from, to, 50)
	assert.Contains(t, q, "ts >= ? AND ts <= ?")
	assert.Contains(t, q, "LIMIT ?")
	assert.Equal(t, []any{"energy", "1day", from, to, 50}, args)
}

func TestSentimentSchemaOrdering(t *testing.T) {
	stmts := SentimentSchema("sectorpulse", DefaultSentimentTable)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "sectorpulse.sector_sentiment")
	assert.Contains(t, stmts[1], "ORDER BY (sector, timeframe, ts)")
}

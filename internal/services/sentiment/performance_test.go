package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
)

func obs(symbol string, prev, price float64, vol, avg int64) models.StockObservation {
	return models.StockObservation{Symbol: symbol, Sector: "industrials", PreviousClose: prev, Price: price, Volume: vol, AvgVolume: avg}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(nil)
	require.NoError(t, err)
	return e
}

func TestVolumeWeight(t *testing.T) {
	assert.Equal(t, 1.0, VolumeWeight(5000, 0))
	assert.Equal(t, 1.0, VolumeWeight(1000, 1000))
	assert.Equal(t, 0.5, VolumeWeight(500, 1000))
	assert.Equal(t, 3.0, VolumeWeight(9000, 1000))
	assert.Equal(t, 3.0, VolumeWeight(3000, 1000))
}

func TestPerformance_SingleStockIsItsAdjustedMove(t *testing.T) {
	e := newEngine(t)
	perf, meta := e.Performance("energy", []models.StockObservation{obs("AAA", 100, 105, 1000, 1000)}, 4)

	assert.InDelta(t, 5.0*1.2, perf, 1e-9)
	assert.Equal(t, 1.2, meta.VolatilityMultiplier)
	assert.Equal(t, 1, meta.ValidStocks)
	assert.Equal(t, 0.25, meta.DataCoverage)
	assert.Equal(t, 1.0, meta.AvgVolumeWeight)
}

func TestPerformance_EqualWeightsAverage(t *testing.T) {
	e := newEngine(t)
	perf, meta := e.Performance("industrials", []models.StockObservation{
		obs("AAA", 100, 105, 1000, 1000),
		obs("BBB", 100, 103, 2000, 2000),
	}, 2)
	assert.InDelta(t, 4.0, perf, 1e-9)
	assert.Equal(t, 1.0, meta.DataCoverage)
}

func TestPerformance_VolumeWeighted(t *testing.T) {
	e := newEngine(t)
	// +10% at weight 2, -2% at weight 1: (20 - 2) / 3
	perf, meta := e.Performance("industrials", []models.StockObservation{
		obs("UP", 100, 110, 2000, 1000),
		obs("DN", 100, 98, 1000, 1000),
	}, 2)
	assert.InDelta(t, 6.0, perf, 1e-9)
	assert.Equal(t, 1.5, meta.AvgVolumeWeight)
}

func TestPerformance_OrderIndependent(t *testing.T) {
	e := newEngine(t)
	in := []models.StockObservation{
		obs("A", 10, 10.7, 300, 100),
		obs("B", 22, 21.1, 100, 400),
		obs("C", 5, 5.25, 0, 0),
		obs("D", 80, 83, 1000, 900),
	}
	want, _ := e.Performance("technology", in, 4)
	rev := []models.StockObservation{in[3], in[1], in[0], in[2]}
	got, _ := e.Performance("technology", rev, 4)
	assert.InDelta(t, want, got, 0.001)
}

func TestPerformance_EmptyAndInvalid(t *testing.T) {
	e := newEngine(t)

	perf, meta := e.Performance("utilities", nil, 10)
	assert.Equal(t, 0.0, perf)
	assert.Equal(t, 0.0, meta.DataCoverage)
	assert.Equal(t, 0, meta.ValidStocks)

	perf, meta = e.Performance("utilities", []models.StockObservation{obs("BAD", 0, 5, 10, 10)}, 0)
	assert.Equal(t, 0.0, perf)
	assert.Equal(t, 0.0, meta.DataCoverage)
}

func TestPerformance_UntradedStocksAreNotCounted(t *testing.T) {
	e := newEngine(t)
	in := []models.StockObservation{
		obs("A", 10, 11, 200, 100),
		obs("B", 10, 9, 0, 100),
		obs("C", 10, 9, 0, 500),
	}
	perf, meta := e.Performance("industrials", in, 3)
	assert.Equal(t, 1, meta.ValidStocks)
	assert.InDelta(t, 0.333, meta.DataCoverage, 0.001)
	assert.InDelta(t, 10.0, perf, 1e-9)
	assert.Equal(t, 2.0, meta.AvgVolumeWeight)

	perf, meta = e.Performance("industrials", in[1:], 2)
	assert.Equal(t, 0.0, perf)
	assert.Equal(t, 0, meta.ValidStocks)
	assert.Equal(t, 0.0, meta.DataCoverage)
}

func TestNewEngine_Overrides(t *testing.T) {
	e, err := NewEngine(map[string]float64{"Real Estate": 1.7})
	require.NoError(t, err)
	assert.Equal(t, 1.7, e.Multiplier("real_estate"))
	assert.Equal(t, 1.0, e.Multiplier("unknown_sector"))

	_, err = NewEngine(map[string]float64{"energy": 0})
	assert.Error(t, err)
}

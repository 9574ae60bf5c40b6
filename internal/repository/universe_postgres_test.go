package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SectorPulse/internal/domain/models"
)

func TestNormalizeStocks(t *testing.T) {
	in := []models.UniverseStock{
		{Symbol: " abcd ", Sector: "Consumer Discretionary", IsActive: true},
		{Symbol: "", Sector: "Energy"},
		{Symbol: "XYZ", Sector: "  "},
		{Symbol: "ABCD", Sector: "consumer-discretionary", IsActive: false, MarketCap: 5e7},
		{Symbol: "efg", Sector: "Energy", IsActive: true},
	}

	out := normalizeStocks(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "ABCD", out[0].Symbol)
	assert.Equal(t, "consumer_discretionary", out[0].Sector)
	assert.False(t, out[0].IsActive, "later duplicate wins")
	assert.Equal(t, 5e7, out[0].MarketCap)
	assert.Equal(t, "EFG", out[1].Symbol)
	assert.Equal(t, "energy", out[1].Sector)
}

func TestMappingForCountsInactive(t *testing.T) {
	m := mappingFor("energy", []models.UniverseStock{
		{Symbol: "A", IsActive: true},
		{Symbol: "B", IsActive: false},
		{Symbol: "C", IsActive: true},
	})
	assert.Equal(t, []string{"A", "C"}, m.Symbols)
	assert.Equal(t, 3, m.TotalCount)
	assert.Equal(t, 2, m.ActiveCount)
	assert.InDelta(t, 66.67, m.Coverage(), 0.01)
}

func TestMappingForEmptySector(t *testing.T) {
	m := mappingFor("none", nil)
	assert.NotNil(t, m.Symbols)
	assert.Zero(t, m.TotalCount)
	assert.Zero(t, m.Coverage())
}

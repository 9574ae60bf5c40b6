package sentiment

import (
	"fmt"

	"SectorPulse/internal/domain/models"
)

// MaxVolumeWeight caps one stock's influence at 3x its usual volume.
const MaxVolumeWeight = 3.0

// DefaultVolatilityMultipliers scale raw moves by how jumpy a sector's small
// caps usually are. Unknown sectors use 1.0.
var DefaultVolatilityMultipliers = map[string]float64{
	"technology":             1.15,
	"healthcare":             1.25,
	"biotechnology":          1.40,
	"energy":                 1.20,
	"basic_materials":        1.10,
	"communication_services": 1.05,
	"consumer_cyclical":      1.05,
	"consumer_defensive":     0.90,
	"financial_services":     0.95,
	"industrials":            1.00,
	"real_estate":            0.90,
	"utilities":              0.80,
}

// VolumeWeight is min(volume/avg, 3). It is 1.0 when the average is unknown.
func VolumeWeight(volume, avgVolume int64) float64 {
	if avgVolume <= 0 || volume < 0 {
		return 1.0
	}
	w := float64(volume) / float64(avgVolume)
	if w > MaxVolumeWeight {
		return MaxVolumeWeight
	}
	return w
}

// Engine computes volume-weighted, volatility-adjusted sector performance.
type Engine struct {
	multipliers map[string]float64
}

// NewEngine merges overrides onto the defaults. Non-positive multipliers are rejected.
func NewEngine(overrides map[string]float64) (*Engine, error) {
	m := make(map[string]float64, len(DefaultVolatilityMultipliers)+len(overrides))
	for k, v := range DefaultVolatilityMultipliers {
		m[k] = v
	}
	for k, v := range overrides {
		if v <= 0 {
			return nil, fmt.Errorf("volatility multiplier for %q must be > 0, got %v", k, v)
		}
		m[models.NormalizeSector(k)] = v
	}
	return &Engine{multipliers: m}, nil
}

// Multiplier returns the configured multiplier for sector.
func (e *Engine) Multiplier(sector string) float64 {
	if v, ok := e.multipliers[sector]; ok {
		return v
	}
	return 1.0
}

// Performance collapses observations into one weighted percentage.
// Invalid observations are skipped, and so are untraded ones whose volume
// weight is zero. Coverage is valid/universe. An empty, all-invalid or
// all-untraded input yields 0 performance and 0 coverage.
func (e *Engine) Performance(sector string, obs []models.StockObservation, universe int) (float64, models.PerformanceMetadata) {
	mult := e.Multiplier(sector)
	meta := models.PerformanceMetadata{VolatilityMultiplier: mult, UniverseStocks: universe}

	var sum, weights float64
	for _, o := range obs {
		if !o.Valid() {
			continue
		}
		w := VolumeWeight(o.Volume, o.AvgVolume)
		if w <= 0 {
			continue
		}
		sum += o.ChangePercent() * mult * w
		weights += w
		meta.ValidStocks++
	}
	if meta.ValidStocks == 0 {
		return 0, meta
	}

	meta.AvgVolumeWeight = Round3(weights / float64(meta.ValidStocks))
	if universe > 0 {
		meta.DataCoverage = clamp01(float64(meta.ValidStocks) / float64(universe))
	}
	return Round3(sum / weights), meta
}

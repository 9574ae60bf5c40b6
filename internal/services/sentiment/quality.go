package sentiment

import (
	"fmt"
	"math"

	"SectorPulse/internal/domain/models"
)

const (
	minAdequateStocks = 5
	minCoverage       = 0.6
)

// QualityInput is what the orchestrator knows after fetching a sector.
type QualityInput struct {
	Sector         string
	TotalStocks    int // universe rows for the sector, active or not
	Requested      int // symbols the adapter was asked for
	Succeeded      int // observations the adapter returned
	ValidStocks    int // observations the engine accepted
	EngineCoverage float64
}

// AssessQuality computes confidence as
// 0.4*min(valid/5, 1) + 0.4*fetch coverage + 0.2*engine coverage, clamped to [0, 1].
func AssessQuality(in QualityInput) models.DataQualityAssessment {
	coverage := 0.0
	if in.Requested > 0 {
		coverage = clamp01(float64(in.Succeeded) / float64(in.Requested))
	}
	adequacy := math.Min(float64(max(in.ValidStocks, 0))/minAdequateStocks, 1.0)
	conf := clamp01(0.4*adequacy + 0.4*coverage + 0.2*clamp01(in.EngineCoverage))

	q := models.DataQualityAssessment{
		Sector:          in.Sector,
		TotalStocks:     in.TotalStocks,
		APISuccessCount: in.Succeeded,
		DataCoverage:    Round3(coverage),
		Confidence:      Round3(conf),
		Flags:           []models.QualityFlag{},
		Recommendations: []string{},
	}

	switch {
	case in.ValidStocks < 1:
		q.Flags = append(q.Flags, models.FlagInsufficientStocks)
		q.Recommendations = append(q.Recommendations, "no usable quotes; check upstream sources and the sector universe")
	case in.ValidStocks < minAdequateStocks:
		q.Flags = append(q.Flags, models.FlagLowStockCount)
		q.Recommendations = append(q.Recommendations,
			fmt.Sprintf("only %d valid stocks; widen the universe for %s", in.ValidStocks, in.Sector))
	}
	if coverage < minCoverage {
		q.Flags = append(q.Flags, models.FlagLowDataCoverage)
		q.Recommendations = append(q.Recommendations,
			fmt.Sprintf("fetch coverage %.0f%% is below %.0f%%", coverage*100, minCoverage*100))
	}
	return q
}

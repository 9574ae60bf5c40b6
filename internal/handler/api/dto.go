package api

import (
	"time"

	"SectorPulse/internal/domain/models"
)

// SectorView is the API shape of one sector result.
type SectorView struct {
	Sector          string                       `json:"sector"`
	SentimentScore  float64                      `json:"sentiment_score"`
	Color           models.Color                 `json:"color_classification"`
	Signal          models.TradingSignal         `json:"trading_signal"`
	Confidence      float64                      `json:"confidence_level"`
	TimeframeScores map[models.Timeframe]float64 `json:"timeframe_scores,omitempty"`
	StockCount      int                          `json:"stock_count"`
	LastUpdated     time.Time                    `json:"last_updated"`
	Source          string                       `json:"source,omitempty"`
	Detail          *SectorDetail                `json:"detail,omitempty"`
}

// SectorDetail carries the figures behind the score.
type SectorDetail struct {
	Timeframe              models.Timeframe             `json:"timeframe"`
	SectorPerformance      float64                      `json:"sector_performance"`
	BenchmarkPerformance   float64                      `json:"benchmark_performance"`
	Alpha                  float64                      `json:"alpha"`
	RelativeStrength       models.RelativeStrength      `json:"relative_strength"`
	DataCoverage           float64                      `json:"data_coverage"`
	VolatilityMultiplier   float64                      `json:"volatility_multiplier"`
	AvgVolumeWeight        float64                      `json:"avg_volume_weight"`
	CalculationMS          int64                        `json:"calculation_ms"`
	TimeframesApproximated bool                         `json:"timeframes_approximated"`
	BenchmarkStatus        models.CacheStatus           `json:"benchmark_status,omitempty"`
	Quality                models.DataQualityAssessment `json:"data_quality"`
}

func toSectorView(r *models.SectorSentimentResult, source string, detail bool) SectorView {
	v := SectorView{
		Sector:          r.Sector,
		SentimentScore:  r.SentimentScore,
		Color:           r.Color,
		Signal:          r.Signal,
		Confidence:      r.Confidence,
		TimeframeScores: r.TimeframeScores,
		StockCount:      r.StockCount,
		LastUpdated:     r.Timestamp,
		Source:          source,
	}
	if detail {
		v.Detail = &SectorDetail{
			Timeframe:              r.Timeframe,
			SectorPerformance:      r.SectorPerformance,
			BenchmarkPerformance:   r.BenchmarkPerformance,
			Alpha:                  r.Alpha,
			RelativeStrength:       r.RelativeStrength,
			DataCoverage:           r.DataCoverage,
			VolatilityMultiplier:   r.VolatilityMultiplier,
			AvgVolumeWeight:        r.AvgVolumeWeight,
			CalculationMS:          r.CalculationTime.Milliseconds(),
			TimeframesApproximated: r.TimeframesApproximated,
			BenchmarkStatus:        r.BenchmarkStatus,
			Quality:                r.Quality,
		}
	}
	return v
}

// BenchmarkView pairs the snapshot with its timeframe estimates.
type BenchmarkView struct {
	Benchmark      models.BenchmarkSnapshot      `json:"benchmark"`
	Approximations models.TimeframeApproximation `json:"timeframe_approximations"`
}

// SweepAccepted acknowledges a queued sweep.
type SweepAccepted struct {
	Queued      bool      `json:"queued"`
	Sectors     []string  `json:"sectors"`
	Timeframes  bool      `json:"timeframes"`
	RequestedAt time.Time `json:"requested_at"`
}

package models

import "time"

// Color is the ordered five-bucket sentiment classification.
type Color string

const (
	DarkRed     Color = "DARK_RED"
	LightRed    Color = "LIGHT_RED"
	BlueNeutral Color = "BLUE_NEUTRAL"
	LightGreen  Color = "LIGHT_GREEN"
	DarkGreen   Color = "DARK_GREEN"
)

// TradingSignal is the shorting guidance derived 1:1 from a Color.
type TradingSignal string

const (
	SignalPrimeShorting TradingSignal = "PRIME_SHORTING_ENVIRONMENT"
	SignalGoodShorting  TradingSignal = "GOOD_SHORTING_ENVIRONMENT"
	SignalNeutral       TradingSignal = "NEUTRAL_CAUTIOUS"
	SignalAvoidShorts   TradingSignal = "AVOID_SHORTS"
	SignalDoNotShort    TradingSignal = "DO_NOT_SHORT"
)

// RelativeStrength labels a sector's alpha against the benchmark.
type RelativeStrength string

const (
	StrongOutperform   RelativeStrength = "STRONG_OUTPERFORM"
	Outperform         RelativeStrength = "OUTPERFORM"
	NeutralStrength    RelativeStrength = "NEUTRAL"
	Underperform       RelativeStrength = "UNDERPERFORM"
	StrongUnderperform RelativeStrength = "STRONG_UNDERPERFORM"
)

// Rank orders relative-strength labels, higher is stronger.
func (r RelativeStrength) Rank() int {
	switch r {
	case StrongOutperform:
		return 4
	case Outperform:
		return 3
	case NeutralStrength:
		return 2
	case Underperform:
		return 1
	default:
		return 0
	}
}

// PerformanceMetadata describes how a weighted sector figure was produced.
type PerformanceMetadata struct {
	VolatilityMultiplier float64 `json:"volatility_multiplier"`
	AvgVolumeWeight      float64 `json:"avg_volume_weight"`
	DataCoverage         float64 `json:"data_coverage"`
	ValidStocks          int     `json:"valid_stocks"`
	UniverseStocks       int     `json:"universe_stocks"`
}

// SectorPerformance is the intermediate result of one aggregation.
type SectorPerformance struct {
	SectorPerformance    float64             `json:"sector_performance"`
	BenchmarkPerformance float64             `json:"benchmark_performance"`
	Alpha                float64             `json:"alpha"`
	RelativeStrength     RelativeStrength    `json:"relative_strength"`
	Metadata             PerformanceMetadata `json:"metadata"`
}

// QualityFlag tags a data-quality defect.
type QualityFlag string

const (
	FlagInsufficientStocks QualityFlag = "INSUFFICIENT_STOCKS"
	FlagLowStockCount      QualityFlag = "LOW_STOCK_COUNT"
	FlagLowDataCoverage    QualityFlag = "LOW_DATA_COVERAGE"
)

// DataQualityAssessment is a per-sector diagnostic. It never drives control flow.
type DataQualityAssessment struct {
	Sector          string        `json:"sector"`
	TotalStocks     int           `json:"total_stocks"`
	APISuccessCount int           `json:"api_success_count"`
	DataCoverage    float64       `json:"data_coverage"`
	Confidence      float64       `json:"confidence"`
	Flags           []QualityFlag `json:"flags"`
	Recommendations []string      `json:"recommendations"`
}

// HasFlag reports whether the assessment carries f.
func (q DataQualityAssessment) HasFlag(f QualityFlag) bool {
	for _, x := range q.Flags {
		if x == f {
			return true
		}
	}
	return false
}

// SectorSentimentResult is the primary output unit, one per (sector, timeframe, run).
type SectorSentimentResult struct {
	Sector                 string                `json:"sector"`
	Timeframe              Timeframe             `json:"timeframe"`
	Timestamp              time.Time             `json:"timestamp"`
	SentimentScore         float64               `json:"sentiment_score"`
	SectorPerformance      float64               `json:"sector_performance"`
	BenchmarkPerformance   float64               `json:"benchmark_performance"`
	Alpha                  float64               `json:"alpha"`
	Color                  Color                 `json:"color_classification"`
	Signal                 TradingSignal         `json:"trading_signal"`
	RelativeStrength       RelativeStrength      `json:"relative_strength"`
	StockCount             int                   `json:"stock_count"`
	DataCoverage           float64               `json:"data_coverage"`
	Confidence             float64               `json:"confidence_level"`
	VolatilityMultiplier   float64               `json:"volatility_multiplier"`
	AvgVolumeWeight        float64               `json:"avg_volume_weight"`
	CalculationTime        time.Duration         `json:"calculation_time_ns"`
	TimeframeScores        map[Timeframe]float64 `json:"timeframe_scores,omitempty"`
	TimeframesApproximated bool                  `json:"timeframes_approximated"`
	BenchmarkStatus        CacheStatus           `json:"benchmark_status,omitempty"`
	Quality                DataQualityAssessment `json:"data_quality"`
}

// SentimentEventType tags result envelopes on the bus and the live feed.
const SentimentEventType = "sector.sentiment"

// SentimentEvent is the envelope shipped to downstream consumers.
type SentimentEvent struct {
	Type      string                 `json:"type"`
	Version   int                    `json:"version"`
	EmittedAt time.Time              `json:"emitted_at"`
	Result    *SectorSentimentResult `json:"result"`
}

// NewSentimentEvent wraps r for publishing.
func NewSentimentEvent(r *SectorSentimentResult, at time.Time) SentimentEvent {
	return SentimentEvent{Type: SentimentEventType, Version: 1, EmittedAt: at.UTC(), Result: r}
}

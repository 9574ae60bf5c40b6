package models

import "time"

// RankInput is the per-stock data the ranker consumes.
type RankInput struct {
	Symbol        string  `json:"symbol"`
	ChangePercent float64 `json:"change_percent"`
	Price         float64 `json:"price"`
	Volume        int64   `json:"volume"`
	AvgVolume     int64   `json:"avg_volume"`
	FloatShares   int64   `json:"float_shares"`
	MarketCap     float64 `json:"market_cap"`
}

// RankedStock carries the composite score and its components.
type RankedStock struct {
	Symbol            string  `json:"symbol"`
	ChangePercent     float64 `json:"change_percent"`
	Price             float64 `json:"price"`
	CompositeScore    float64 `json:"composite_score"`
	GapScore          float64 `json:"gap_score"`
	VolumeScore       float64 `json:"volume_score"`
	AlignmentScore    float64 `json:"alignment_score"`
	ShortabilityScore float64 `json:"shortability_score"`
}

// SectorRanking is the top-N bullish and bearish split for a sector.
type SectorRanking struct {
	Sector         string        `json:"sector"`
	SentimentScore float64       `json:"sentiment_score"`
	Bullish        []RankedStock `json:"top_bullish"`
	Bearish        []RankedStock `json:"top_bearish"`
	Evaluated      int           `json:"evaluated"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// TimeframeSentiment is the multi-timeframe blend for one sector.
type TimeframeSentiment struct {
	Sector        string                `json:"sector"`
	Timestamp     time.Time             `json:"timestamp"`
	Scores        map[Timeframe]float64 `json:"timeframe_scores"`
	Performance   map[Timeframe]float64 `json:"timeframe_performance"`
	BlendedScore  float64               `json:"sentiment_score"`
	Color         Color                 `json:"color_classification"`
	Signal        TradingSignal         `json:"trading_signal"`
	Confidence    float64               `json:"confidence_level"`
	StockCount    int                   `json:"stock_count"`
	UniverseCount int                   `json:"universe_count"`
}

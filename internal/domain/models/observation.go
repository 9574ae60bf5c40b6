package models

import (
	"math"
	"time"
)

// SourceName identifies an upstream quote provider.
type SourceName string

const (
	SourceA SourceName = "sourceA" // fundamentals/screener provider
	SourceB SourceName = "sourceB" // market-data provider
)

// FetchMode selects which upstream source(s) the adapter consults.
type FetchMode string

const (
	FetchAuto    FetchMode = "auto"
	FetchSourceA FetchMode = "sourceA"
	FetchSourceB FetchMode = "sourceB"
)

// Quote is a source response normalized into one shape. Nil pointers mean the
// provider did not report the field.
type Quote struct {
	Symbol        string
	Source        SourceName
	Price         *float64
	PreviousClose *float64
	Volume        *int64
	AvgVolume     *int64
	MarketCap     *float64
	Bid           *float64
	Ask           *float64
}

// SourceErrorKind classifies why a source call produced no usable data.
type SourceErrorKind string

const (
	SourceErrNetwork SourceErrorKind = "network"
	SourceErrParse   SourceErrorKind = "parse"
	SourceErrEmpty   SourceErrorKind = "empty"
	SourceErrInvalid SourceErrorKind = "invalid"
)

// SourceResult is the outcome of one source call: OK with a scored quote, or a
// classified failure.
type SourceResult struct {
	OK      bool
	Source  SourceName
	Quote   Quote
	Quality float64
	Kind    SourceErrorKind
	Err     error
}

// StockObservation is one symbol's point-in-time market snapshot.
type StockObservation struct {
	Symbol        string     `json:"symbol"`
	Sector        string     `json:"sector"`
	Price         float64    `json:"price"`
	PreviousClose float64    `json:"previous_close"`
	Volume        int64      `json:"volume"`
	AvgVolume     int64      `json:"avg_volume"`
	MarketCap     float64    `json:"market_cap,omitempty"`
	Source        SourceName `json:"source"`
	Quality       float64    `json:"quality"`
	FetchedAt     time.Time  `json:"fetched_at"`
}

// ChangePercent returns the day-over-day move in percent, 0 for invalid prices.
func (o StockObservation) ChangePercent() float64 {
	if o.PreviousClose <= 0 || o.Price <= 0 {
		return 0
	}
	return (o.Price - o.PreviousClose) / o.PreviousClose * 100
}

// Valid reports whether the observation can feed derived calculations.
func (o StockObservation) Valid() bool {
	return o.Price > 0 && o.PreviousClose > 0 && o.Volume >= 0 && o.AvgVolume >= 0 &&
		!math.IsNaN(o.Price) && !math.IsInf(o.Price, 0)
}

// TimeframeChanges holds per-timeframe moves for one symbol.
type TimeframeChanges struct {
	Symbol    string                `json:"symbol"`
	Changes   map[Timeframe]float64 `json:"changes"`
	Volume    int64                 `json:"volume"`
	AvgVolume int64                 `json:"avg_volume"`
}

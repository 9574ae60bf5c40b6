package sentiment

import (
	"math"
	"sort"
	"time"

	"SectorPulse/internal/domain/models"
)

// Composite weights.
const (
	gapWeight          = 0.40
	volumeWeight       = 0.30
	alignmentWeight    = 0.20
	shortabilityWeight = 0.10
)

// GapScore is a step function of the absolute move.
func GapScore(changePct float64) float64 {
	a := math.Abs(changePct)
	switch {
	case a >= 30:
		return 1.0
	case a >= 15:
		return 0.8
	case a >= 10:
		return 0.6
	case a >= 5:
		return 0.4
	case a >= 2:
		return 0.2
	default:
		return 0
	}
}

// VolumeScore is a step function of volume/avg volume.
func VolumeScore(volume, avgVolume int64) float64 {
	if avgVolume <= 0 {
		return 0
	}
	r := float64(volume) / float64(avgVolume)
	switch {
	case r >= 2.5:
		return 1.0
	case r >= 1.5:
		return 0.7
	case r >= 1.0:
		return 0.4
	default:
		return 0
	}
}

// AlignmentScore is 1.0 when the stock moves with the sector lean, 0.3 when it
// moves against it and 0.5 when the sector (or the stock) has no direction.
// The lean uses the same neutral band as the color table.
func AlignmentScore(changePct, sectorScore float64) float64 {
	var lean int
	switch ClassifyColor(sectorScore) {
	case models.LightGreen, models.DarkGreen:
		lean = 1
	case models.LightRed, models.DarkRed:
		lean = -1
	}
	if lean == 0 || changePct == 0 {
		return 0.5
	}
	if (changePct > 0) == (lean > 0) {
		return 1.0
	}
	return 0.3
}

// Shortability scores 0-10 how easy the name should be to borrow:
// float up to 3, price up to 2.5, volume up to 2.5, market cap up to 2.
func Shortability(in models.RankInput) float64 {
	var s float64
	switch {
	case in.FloatShares >= 50_000_000:
		s += 3
	case in.FloatShares >= 10_000_000:
		s += 2
	default:
		s += 1
	}
	switch {
	case in.Price >= 5:
		s += 2.5
	case in.Price >= 2:
		s += 1.5
	case in.Price >= 1:
		s += 0.5
	}
	switch {
	case in.Volume >= 1_000_000:
		s += 2.5
	case in.Volume >= 500_000:
		s += 1.5
	case in.Volume >= 100_000:
		s += 0.5
	}
	switch {
	case in.MarketCap >= 300_000_000:
		s += 2
	case in.MarketCap >= 100_000_000:
		s += 1.5
	case in.MarketCap >= 50_000_000:
		s += 1
	default:
		s += 0.5
	}
	return s
}

// Score computes every component for one stock.
func Score(in models.RankInput, sectorScore float64) models.RankedStock {
	gap := GapScore(in.ChangePercent)
	vol := VolumeScore(in.Volume, in.AvgVolume)
	align := AlignmentScore(in.ChangePercent, sectorScore)
	short := Shortability(in) / 10
	return models.RankedStock{
		Symbol:            in.Symbol,
		ChangePercent:     Round3(in.ChangePercent),
		Price:             in.Price,
		GapScore:          gap,
		VolumeScore:       vol,
		AlignmentScore:    align,
		ShortabilityScore: Round3(short),
		CompositeScore:    Round3(gap*gapWeight + vol*volumeWeight + align*alignmentWeight + short*shortabilityWeight),
	}
}

// Rank sorts by composite descending and keeps the top n of each direction.
// Flat stocks are in neither list. Ties break on larger move, then symbol.
func Rank(sector string, inputs []models.RankInput, sectorScore float64, n int, now time.Time) models.SectorRanking {
	scored := make([]models.RankedStock, 0, len(inputs))
	for _, in := range inputs {
		scored = append(scored, Score(in, sectorScore))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if ma, mb := math.Abs(a.ChangePercent), math.Abs(b.ChangePercent); ma != mb {
			return ma > mb
		}
		return a.Symbol < b.Symbol
	})

	out := models.SectorRanking{
		Sector:         sector,
		SentimentScore: sectorScore,
		Bullish:        []models.RankedStock{},
		Bearish:        []models.RankedStock{},
		Evaluated:      len(scored),
		GeneratedAt:    now,
	}
	for _, s := range scored {
		switch {
		case s.ChangePercent > 0 && len(out.Bullish) < n:
			out.Bullish = append(out.Bullish, s)
		case s.ChangePercent < 0 && len(out.Bearish) < n:
			out.Bearish = append(out.Bearish, s)
		}
	}
	return out
}

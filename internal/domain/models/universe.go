package models

import (
	"strings"
	"unicode"
)

// UniverseStock is one row of the filtered small/micro-cap universe.
type UniverseStock struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Sector      string  `json:"sector"`
	IsActive    bool    `json:"is_active"`
	FloatShares int64   `json:"float_shares"`
	MarketCap   float64 `json:"market_cap"`
}

// SectorStockMapping is the active-symbol view of one sector, recomputed per aggregation.
type SectorStockMapping struct {
	Sector      string   `json:"sector"`
	Symbols     []string `json:"symbols"`
	TotalCount  int      `json:"total_count"`
	ActiveCount int      `json:"active_count"`
}

// Coverage returns active/total as a percentage.
func (m SectorStockMapping) Coverage() float64 {
	if m.TotalCount == 0 {
		return 0
	}
	return float64(m.ActiveCount) / float64(m.TotalCount) * 100
}

// NormalizeSector converts a raw sector label into lowercase snake_case.
// "Consumer Discretionary" and " consumer-discretionary " both become
// "consumer_discretionary". It runs once, where stocks enter the universe.
func NormalizeSector(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	pendingSep := false
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// NormalizeSymbol uppercases and trims a ticker. Returns "" when the result is
// empty or longer than 10 characters.
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || len(s) > 10 {
		return ""
	}
	return s
}

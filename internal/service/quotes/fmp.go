package quotes

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"SectorPulse/internal/domain/models"
)

const defaultSourceAURL = "https://financialmodelingprep.com/api/v3"

// FMP is the fundamentals/screener provider (source A). Its quote carries
// average volume and market cap but no bid/ask.
type FMP struct {
	*httpSource
}

// NewFMP creates the source A client.
func NewFMP(apiKey string, opts ...Option) *FMP {
	return &FMP{httpSource: newHTTPSource(defaultSourceAURL, apiKey, opts)}
}

func (c *FMP) Name() models.SourceName { return models.SourceA }

type fmpQuote struct {
	Symbol        string   `json:"symbol"`
	Price         *float64 `json:"price"`
	PreviousClose *float64 `json:"previousClose"`
	Volume        *float64 `json:"volume"`
	AvgVolume     *float64 `json:"avgVolume"`
	MarketCap     *float64 `json:"marketCap"`
}

// GetQuote fetches /quote/{symbol}.
func (c *FMP) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	var rows []fmpQuote
	path := "/quote/" + url.PathEscape(symbol)
	if err := c.get(ctx, path, map[string][]string{"apikey": {c.apiKey}}, &rows); err != nil {
		return models.Quote{}, err
	}
	for _, r := range rows {
		if strings.EqualFold(r.Symbol, symbol) {
			return r.toQuote(symbol), nil
		}
	}
	return models.Quote{}, fmt.Errorf("fmp %s: %w", symbol, ErrNoData)
}

func (r fmpQuote) toQuote(symbol string) models.Quote {
	q := models.Quote{
		Symbol:        symbol,
		Source:        models.SourceA,
		Price:         r.Price,
		PreviousClose: r.PreviousClose,
		MarketCap:     r.MarketCap,
	}
	if r.Volume != nil {
		q.Volume = ptrI(int64(*r.Volume))
	}
	if r.AvgVolume != nil {
		q.AvgVolume = ptrI(int64(*r.AvgVolume))
	}
	return q
}

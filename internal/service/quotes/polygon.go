package quotes

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"SectorPulse/internal/domain/models"
)

const defaultSourceBURL = "https://api.polygon.io"

// Polygon is the market-data provider (source B). Its snapshot carries
// bid/ask but no average volume; its aggregates feed the timeframe calculator.
type Polygon struct {
	*httpSource
	now func() time.Time
}

// NewPolygon creates the source B client.
func NewPolygon(apiKey string, opts ...Option) *Polygon {
	return &Polygon{httpSource: newHTTPSource(defaultSourceBURL, apiKey, opts), now: time.Now}
}

func (c *Polygon) Name() models.SourceName { return models.SourceB }

type polyBar struct {
	C float64 `json:"c"`
	V float64 `json:"v"`
	T int64   `json:"t"`
}

type polySnapshot struct {
	Status string `json:"status"`
	Ticker *struct {
		Ticker    string   `json:"ticker"`
		Day       *polyBar `json:"day"`
		PrevDay   *polyBar `json:"prevDay"`
		LastTrade *struct {
			P float64 `json:"p"`
		} `json:"lastTrade"`
		LastQuote *struct {
			Bid float64 `json:"p"`
			Ask float64 `json:"P"`
		} `json:"lastQuote"`
	} `json:"ticker"`
}

// GetQuote fetches the ticker snapshot.
func (c *Polygon) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	var snap polySnapshot
	path := "/v2/snapshot/locale/us/markets/stocks/tickers/" + url.PathEscape(symbol)
	if err := c.get(ctx, path, c.auth(nil), &snap); err != nil {
		return models.Quote{}, err
	}
	t := snap.Ticker
	if t == nil {
		return models.Quote{}, fmt.Errorf("polygon %s: %w", symbol, ErrNoData)
	}

	q := models.Quote{Symbol: symbol, Source: models.SourceB}
	switch {
	case t.LastTrade != nil && t.LastTrade.P > 0:
		q.Price = ptrF(t.LastTrade.P)
	case t.Day != nil:
		q.Price = ptrF(t.Day.C)
	}
	if t.Day != nil {
		q.Volume = ptrI(int64(t.Day.V))
	}
	if t.PrevDay != nil {
		q.PreviousClose = ptrF(t.PrevDay.C)
	}
	if t.LastQuote != nil {
		if t.LastQuote.Bid > 0 {
			q.Bid = ptrF(t.LastQuote.Bid)
		}
		if t.LastQuote.Ask > 0 {
			q.Ask = ptrF(t.LastQuote.Ask)
		}
	}
	return q, nil
}

type polyAggs struct {
	Status  string    `json:"status"`
	Results []polyBar `json:"results"`
}

// Lookback windows for the aggregates requests.
const (
	intradayLookback = 5 * 24 * time.Hour
	dailyLookback    = 35 * 24 * time.Hour
	avgVolumeBars    = 20
)

// TimeframeChanges derives 30min, 1day, 3day and 1week moves from 30-minute
// and daily bars. Horizons without enough bars are left out.
func (c *Polygon) TimeframeChanges(ctx context.Context, symbol string) (models.TimeframeChanges, error) {
	out := models.TimeframeChanges{Symbol: symbol, Changes: map[models.Timeframe]float64{}}
	now := c.now().UTC()

	daily, err := c.aggs(ctx, symbol, 1, "day", now.Add(-dailyLookback), now)
	if err != nil {
		return out, err
	}
	n := len(daily)
	if n < 2 {
		return out, fmt.Errorf("polygon aggs %s: %w", symbol, ErrNoData)
	}
	last := daily[n-1]
	for tf, back := range map[models.Timeframe]int{models.TF1Day: 1, models.TF3Day: 3, models.TF1Week: 5} {
		if n > back {
			if ch, ok := pctChange(daily[n-1-back].C, last.C); ok {
				out.Changes[tf] = ch
			}
		}
	}
	out.Volume = int64(last.V)
	out.AvgVolume = avgVolume(daily[:n-1])

	intraday, err := c.aggs(ctx, symbol, 30, "minute", now.Add(-intradayLookback), now)
	if err != nil {
		// daily horizons are still usable
		c.log.Debug("intraday aggregates unavailable")
		return out, nil
	}
	if m := len(intraday); m >= 2 {
		if ch, ok := pctChange(intraday[m-2].C, intraday[m-1].C); ok {
			out.Changes[models.TF30Min] = ch
		}
	}
	return out, nil
}

func (c *Polygon) aggs(ctx context.Context, symbol string, mult int, span string, from, to time.Time) ([]polyBar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(symbol), mult, span, from.Format(time.DateOnly), to.Format(time.DateOnly))
	var res polyAggs
	q := c.auth(map[string][]string{"adjusted": {"true"}, "sort": {"asc"}, "limit": {"5000"}})
	if err := c.get(ctx, path, q, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

func (c *Polygon) auth(q map[string][]string) map[string][]string {
	if q == nil {
		q = map[string][]string{}
	}
	q["apiKey"] = []string{c.apiKey}
	return q
}

func pctChange(from, to float64) (float64, bool) {
	if from <= 0 || to <= 0 {
		return 0, false
	}
	return (to - from) / from * 100, true
}

func avgVolume(bars []polyBar) int64 {
	if len(bars) > avgVolumeBars {
		bars = bars[len(bars)-avgVolumeBars:]
	}
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += b.V
	}
	return int64(sum / float64(len(bars)))
}

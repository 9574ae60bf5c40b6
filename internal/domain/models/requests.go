package models

// Requests for sector HTTP endpoints. Defined in domain for reuse by the CLI.

type SectorRequest struct {
	Sector  string `param:"sector" json:"sector" validate:"required,max=64"`
	Refresh bool   `query:"refresh" json:"refresh" default:"false"`
}

type HistoryRequest struct {
	Sector    string `param:"sector" json:"sector" validate:"required,max=64"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1day" validate:"oneof=30min 1day 3day 1week"`
	From      string `query:"from" json:"from"`
	To        string `query:"to" json:"to"`
	Limit     int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}

type RankingRequest struct {
	Sector string `param:"sector" json:"sector" validate:"required,max=64"`
	Top    int    `query:"top" json:"top" default:"3" validate:"gte=1,lte=20"`
}

// SweepRequest asks for an on-demand run. No sectors means every sector;
// Timeframes also refreshes the multi-timeframe blend.
type SweepRequest struct {
	Sectors    []string `json:"sectors" validate:"omitempty,dive,required,max=64"`
	Timeframes bool     `json:"timeframes"`
	Reason     string   `json:"reason" validate:"max=128"`
}

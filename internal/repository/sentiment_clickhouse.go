package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	pkgch "SectorPulse/pkg/clickhouse"
	applogger "SectorPulse/pkg/logger"
)

// DefaultSentimentTable is the history table name.
const DefaultSentimentTable = "sector_sentiment"

const sentimentColumns = `ts, sector, timeframe, sentiment_score, sector_performance,
	benchmark_performance, alpha, color, signal, relative_strength, stock_count,
	data_coverage, confidence, volatility_multiplier, avg_volume_weight,
	calculation_ns, timeframe_scores, timeframes_approximated, benchmark_status, quality`

// SentimentSchema returns the DDL for the history table. Rows are ordered by
// (sector, timeframe, ts) so range reads for one series are contiguous.
func SentimentSchema(database, table string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	ts DateTime64(3, 'UTC'),
	sector LowCardinality(String),
	timeframe LowCardinality(String),
	sentiment_score Float64,
	sector_performance Float64,
	benchmark_performance Float64,
	alpha Float64,
	color LowCardinality(String),
	signal LowCardinality(String),
	relative_strength LowCardinality(String),
	stock_count UInt32,
	data_coverage Float64,
	confidence Float64,
	volatility_multiplier Float64,
	avg_volume_weight Float64,
	calculation_ns UInt64,
	timeframe_scores Map(String, Float64),
	timeframes_approximated Bool,
	benchmark_status LowCardinality(String),
	quality String
) ENGINE = ReplacingMergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (sector, timeframe, ts)`, database, table),
	}
}

// sentimentRow mirrors one table row with ClickHouse-compatible Go types.
type sentimentRow struct {
	TS                     time.Time
	Sector                 string
	Timeframe              string
	SentimentScore         float64
	SectorPerformance      float64
	BenchmarkPerformance   float64
	Alpha                  float64
	Color                  string
	Signal                 string
	RelativeStrength       string
	StockCount             uint32
	DataCoverage           float64
	Confidence             float64
	VolatilityMultiplier   float64
	AvgVolumeWeight        float64
	CalculationNS          uint64
	TimeframeScores        map[string]float64
	TimeframesApproximated bool
	BenchmarkStatus        string
	Quality                string
}

func (r *sentimentRow) values() []any {
	return []any{
		r.TS, r.Sector, r.Timeframe, r.SentimentScore, r.SectorPerformance,
		r.BenchmarkPerformance, r.Alpha, r.Color, r.Signal, r.RelativeStrength,
		r.StockCount, r.DataCoverage, r.Confidence, r.VolatilityMultiplier,
		r.AvgVolumeWeight, r.CalculationNS, r.TimeframeScores,
		r.TimeframesApproximated, r.BenchmarkStatus, r.Quality,
	}
}

func (r *sentimentRow) targets() []any {
	return []any{
		&r.TS, &r.Sector, &r.Timeframe, &r.SentimentScore, &r.SectorPerformance,
		&r.BenchmarkPerformance, &r.Alpha, &r.Color, &r.Signal, &r.RelativeStrength,
		&r.StockCount, &r.DataCoverage, &r.Confidence, &r.VolatilityMultiplier,
		&r.AvgVolumeWeight, &r.CalculationNS, &r.TimeframeScores,
		&r.TimeframesApproximated, &r.BenchmarkStatus, &r.Quality,
	}
}

func toSentimentRow(r *models.SectorSentimentResult) (*sentimentRow, error) {
	q, err := json.Marshal(r.Quality)
	if err != nil {
		return nil, fmt.Errorf("marshal quality: %w", err)
	}
	scores := make(map[string]float64, len(r.TimeframeScores))
	for tf, v := range r.TimeframeScores {
		scores[string(tf)] = v
	}
	calc := r.CalculationTime
	if calc < 0 {
		calc = 0
	}
	return &sentimentRow{
		TS:                     r.Timestamp.UTC(),
		Sector:                 r.Sector,
		Timeframe:              string(r.Timeframe),
		SentimentScore:         r.SentimentScore,
		SectorPerformance:      r.SectorPerformance,
		BenchmarkPerformance:   r.BenchmarkPerformance,
		Alpha:                  r.Alpha,
		Color:                  string(r.Color),
		Signal:                 string(r.Signal),
		RelativeStrength:       string(r.RelativeStrength),
		StockCount:             uint32(r.StockCount),
		DataCoverage:           r.DataCoverage,
		Confidence:             r.Confidence,
		VolatilityMultiplier:   r.VolatilityMultiplier,
		AvgVolumeWeight:        r.AvgVolumeWeight,
		CalculationNS:          uint64(calc),
		TimeframeScores:        scores,
		TimeframesApproximated: r.TimeframesApproximated,
		BenchmarkStatus:        string(r.BenchmarkStatus),
		Quality:                string(q),
	}, nil
}

func (r *sentimentRow) result() (*models.SectorSentimentResult, error) {
	out := &models.SectorSentimentResult{
		Sector:                 r.Sector,
		Timeframe:              models.Timeframe(r.Timeframe),
		Timestamp:              r.TS.UTC(),
		SentimentScore:         r.SentimentScore,
		SectorPerformance:      r.SectorPerformance,
		BenchmarkPerformance:   r.BenchmarkPerformance,
		Alpha:                  r.Alpha,
		Color:                  models.Color(r.Color),
		Signal:                 models.TradingSignal(r.Signal),
		RelativeStrength:       models.RelativeStrength(r.RelativeStrength),
		StockCount:             int(r.StockCount),
		DataCoverage:           r.DataCoverage,
		Confidence:             r.Confidence,
		VolatilityMultiplier:   r.VolatilityMultiplier,
		AvgVolumeWeight:        r.AvgVolumeWeight,
		CalculationTime:        time.Duration(r.CalculationNS),
		TimeframesApproximated: r.TimeframesApproximated,
		BenchmarkStatus:        models.CacheStatus(r.BenchmarkStatus),
	}
	if len(r.TimeframeScores) > 0 {
		out.TimeframeScores = make(map[models.Timeframe]float64, len(r.TimeframeScores))
		for tf, v := range r.TimeframeScores {
			out.TimeframeScores[models.Timeframe(tf)] = v
		}
	}
	if r.Quality != "" {
		if err := json.Unmarshal([]byte(r.Quality), &out.Quality); err != nil {
			return nil, fmt.Errorf("unmarshal quality: %w", err)
		}
	}
	return out, nil
}

// ClickHouseSentimentStore implements SentimentStore backed by ClickHouse.
type ClickHouseSentimentStore struct {
	conn     driver.Conn
	client   *pkgch.Client
	database string
	table    string
	l        *applogger.Logger
}

func NewClickHouseSentimentStore(ch *pkgch.Client, table string, l *applogger.Logger) domrepo.SentimentStore {
	if table == "" {
		table = DefaultSentimentTable
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseSentimentStore{
		conn:     ch.Conn(),
		client:   ch,
		database: ch.Database(),
		table:    table,
		l:        l.Component("sentiment_store"),
	}
}

func (s *ClickHouseSentimentStore) fqtn() string { return s.database + "." + s.table }

func (s *ClickHouseSentimentStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, SentimentSchema(s.database, s.table))
}

func (s *ClickHouseSentimentStore) StoreSectorSentiment(ctx context.Context, r *models.SectorSentimentResult) error {
	return s.StoreBatch(ctx, []*models.SectorSentimentResult{r})
}

// StoreBatch writes results in one insert block.
func (s *ClickHouseSentimentStore) StoreBatch(ctx context.Context, results []*models.SectorSentimentResult) error {
	if len(results) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.fqtn()+" ("+sentimentColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, r := range results {
		row, err := toSentimentRow(r)
		if err != nil {
			_ = batch.Abort()
			return err
		}
		if err := batch.Append(row.values()...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append %s/%s: %w", r.Sector, r.Timeframe, err)
		}
	}
	if err := batch.Send(); err != nil {
		s.l.Error("clickhouse sentiment insert failed",
			applogger.Int("rows", len(results)),
			applogger.Error(err),
		)
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// History returns rows for one (sector, timeframe) series, newest first.
// A zero from or to leaves that side open.
func (s *ClickHouseSentimentStore) History(ctx context.Context, sector string, tf models.Timeframe, from, to time.Time, limit int) ([]*models.SectorSentimentResult, error) {
	start := time.Now()
	q, args := historyQuery(s.fqtn(), sector, tf, from, to, limit)
	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse history query error",
			applogger.String("sector", sector),
			applogger.String("tf", string(tf)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	out := make([]*models.SectorSentimentResult, 0, 64)
	for rows.Next() {
		var row sentimentRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		res, err := row.result()
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse history ok",
		applogger.String("sector", sector),
		applogger.String("tf", string(tf)),
		applogger.Int("rows", len(out)),
		applogger.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return out, nil
}

func historyQuery(table, sector string, tf models.Timeframe, from, to time.Time, limit int) (string, []any) {
	q := "SELECT " + sentimentColumns + " FROM " + table + " FINAL WHERE sector = ? AND timeframe = ?"
	args := []any{sector, string(tf)}
	if !from.IsZero() {
		q += " AND ts >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		q += " AND ts <= ?"
		args = append(args, to.UTC())
	}
	q += " ORDER BY ts DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return q, args
}

func (s *ClickHouseSentimentStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close is a no-op; the client is owned by the caller.
func (s *ClickHouseSentimentStore) Close() error { return nil }

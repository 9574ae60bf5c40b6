package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	applogger "SectorPulse/pkg/logger"
	"SectorPulse/pkg/postgres"
)

// UniverseSchema creates the stock_universe table.
var UniverseSchema = []string{
	`CREATE TABLE IF NOT EXISTS stock_universe (
		symbol       TEXT PRIMARY KEY,
		name         TEXT NOT NULL DEFAULT '',
		sector       TEXT NOT NULL,
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		float_shares BIGINT NOT NULL DEFAULT 0,
		market_cap   DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_universe_sector ON stock_universe (sector)`,
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type universeRow struct {
	Symbol      string  `db:"symbol"`
	Name        string  `db:"name"`
	Sector      string  `db:"sector"`
	IsActive    bool    `db:"is_active"`
	FloatShares int64   `db:"float_shares"`
	MarketCap   float64 `db:"market_cap"`
}

func (r universeRow) stock() models.UniverseStock {
	return models.UniverseStock(r)
}

// PostgresUniverseStore implements UniverseStore over pgx.
type PostgresUniverseStore struct {
	db pgxQuerier
	l  *applogger.Logger
}

func NewPostgresUniverseStore(db *postgres.DB, l *applogger.Logger) domrepo.UniverseStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &PostgresUniverseStore{db: db.Pool, l: l.Component("universe_store")}
}

// ActiveSymbols counts every stock in the sector and lists the active ones.
func (s *PostgresUniverseStore) ActiveSymbols(ctx context.Context, sector string) (models.SectorStockMapping, error) {
	stocks, err := s.Stocks(ctx, sector)
	if err != nil {
		return models.SectorStockMapping{}, err
	}
	return mappingFor(sector, stocks), nil
}

func mappingFor(sector string, stocks []models.UniverseStock) models.SectorStockMapping {
	m := models.SectorStockMapping{Sector: sector, Symbols: make([]string, 0, len(stocks))}
	for _, st := range stocks {
		m.TotalCount++
		if st.IsActive {
			m.ActiveCount++
			m.Symbols = append(m.Symbols, st.Symbol)
		}
	}
	return m
}

func (s *PostgresUniverseStore) Sectors(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT sector FROM stock_universe WHERE is_active ORDER BY sector`)
	if err != nil {
		return nil, fmt.Errorf("query sectors: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect sectors: %w", err)
	}
	return out, nil
}

// Stocks returns all rows of a sector, active or not, ordered by symbol.
func (s *PostgresUniverseStore) Stocks(ctx context.Context, sector string) ([]models.UniverseStock, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, name, sector, is_active, float_shares, market_cap
		FROM stock_universe
		WHERE sector = $1
		ORDER BY symbol`, models.NormalizeSector(sector))
	if err != nil {
		return nil, fmt.Errorf("query universe %s: %w", sector, err)
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToStructByName[universeRow])
	if err != nil {
		return nil, fmt.Errorf("collect universe %s: %w", sector, err)
	}
	out := make([]models.UniverseStock, len(recs))
	for i, r := range recs {
		out[i] = r.stock()
	}
	return out, nil
}

// UpsertStocks normalizes and writes stocks in one batch. Rows without a
// usable symbol or sector are dropped; duplicates keep the last one.
func (s *PostgresUniverseStore) UpsertStocks(ctx context.Context, stocks []models.UniverseStock) (int, error) {
	clean := normalizeStocks(stocks)
	if len(clean) == 0 {
		return 0, nil
	}
	if dropped := len(stocks) - len(clean); dropped > 0 {
		s.l.Warn("universe rows dropped during normalization",
			applogger.Int("dropped", dropped),
			applogger.Int("kept", len(clean)),
		)
	}

	b := &pgx.Batch{}
	for _, st := range clean {
		b.Queue(`
			INSERT INTO stock_universe (symbol, name, sector, is_active, float_shares, market_cap, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (symbol) DO UPDATE SET
				name = EXCLUDED.name,
				sector = EXCLUDED.sector,
				is_active = EXCLUDED.is_active,
				float_shares = EXCLUDED.float_shares,
				market_cap = EXCLUDED.market_cap,
				updated_at = NOW()`,
			st.Symbol, st.Name, st.Sector, st.IsActive, st.FloatShares, st.MarketCap)
	}
	br := s.db.SendBatch(ctx, b)
	defer br.Close()
	for i := range clean {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert %s: %w", clean[i].Symbol, err)
		}
	}
	return len(clean), nil
}

func normalizeStocks(in []models.UniverseStock) []models.UniverseStock {
	bySymbol := make(map[string]models.UniverseStock, len(in))
	for _, st := range in {
		st.Symbol = models.NormalizeSymbol(st.Symbol)
		st.Sector = models.NormalizeSector(st.Sector)
		if st.Symbol == "" || st.Sector == "" {
			continue
		}
		bySymbol[st.Symbol] = st
	}
	out := make([]models.UniverseStock, 0, len(bySymbol))
	for _, st := range bySymbol {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

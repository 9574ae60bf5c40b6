package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"SectorPulse/internal/domain/models"
	drepo "SectorPulse/internal/domain/repository"
)

// universeColumns are the CSV headers the importer understands. symbol and
// sector are required; the rest are optional.
var universeColumns = []string{"symbol", "name", "sector", "is_active", "float_shares", "market_cap"}

// ParseUniverseCSV reads universe rows from a CSV with a header line. Rows
// with an unusable symbol or sector are skipped and reported in the second
// return value as "line N: reason".
func ParseUniverseCSV(r io.Reader) ([]models.UniverseStock, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("empty universe file")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"symbol", "sector"} {
		if _, ok := idx[req]; !ok {
			return nil, nil, fmt.Errorf("missing %q column (known: %s)", req, strings.Join(universeColumns, ", "))
		}
	}

	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		out     []models.UniverseStock
		skipped []string
		line    = 1
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		s := models.UniverseStock{
			Symbol:   models.NormalizeSymbol(field(rec, "symbol")),
			Name:     field(rec, "name"),
			Sector:   models.NormalizeSector(field(rec, "sector")),
			IsActive: true,
		}
		if s.Symbol == "" {
			skipped = append(skipped, fmt.Sprintf("line %d: bad symbol", line))
			continue
		}
		if s.Sector == "" {
			skipped = append(skipped, fmt.Sprintf("line %d: empty sector", line))
			continue
		}
		if v := field(rec, "is_active"); v != "" {
			active, err := strconv.ParseBool(v)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("line %d: bad is_active %q", line, v))
				continue
			}
			s.IsActive = active
		}
		if v := field(rec, "float_shares"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("line %d: bad float_shares %q", line, v))
				continue
			}
			s.FloatShares = n
		}
		if v := field(rec, "market_cap"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("line %d: bad market_cap %q", line, v))
				continue
			}
			s.MarketCap = f
		}
		out = append(out, s)
	}
	return out, skipped, nil
}

// ImportUniverse parses r and upserts the rows. It returns how many rows the
// store wrote and the skipped-row notes.
func ImportUniverse(ctx context.Context, store drepo.UniverseStore, r io.Reader) (int, []string, error) {
	stocks, skipped, err := ParseUniverseCSV(r)
	if err != nil {
		return 0, nil, err
	}
	if len(stocks) == 0 {
		return 0, skipped, nil
	}
	n, err := store.UpsertStocks(ctx, stocks)
	if err != nil {
		return 0, skipped, fmt.Errorf("upsert universe: %w", err)
	}
	return n, skipped, nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"SectorPulse/internal/domain/models"
)

var (
	aggSector     string
	aggAll        bool
	aggPersist    bool
	aggTimeframes bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate one sector, or every sector, and print the result",
	Long: `Fetch live quotes for a sector's universe and compute its sentiment.

Example:
  sectorctl aggregate --sector technology
  sectorctl aggregate --all --persist
  sectorctl aggregate --sector energy --timeframes`,
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggSector, "sector", "", "sector name, any spelling")
	aggregateCmd.Flags().BoolVar(&aggAll, "all", false, "aggregate every sector in the universe")
	aggregateCmd.Flags().BoolVar(&aggPersist, "persist", false, "also write results to ClickHouse")
	aggregateCmd.Flags().BoolVar(&aggTimeframes, "timeframes", false, "print the multi-timeframe blend instead")
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	sector := models.NormalizeSector(aggSector)
	if sector == "" && !aggAll {
		return fmt.Errorf("--sector or --all is required")
	}
	if aggAll && aggTimeframes {
		return fmt.Errorf("--timeframes works on a single --sector")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tk, err := newToolkit(cfg, aggPersist)
	if err != nil {
		return err
	}
	defer tk.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	switch {
	case aggTimeframes:
		out, err := tk.timeframes(ctx, sector)
		if err != nil {
			return err
		}
		return printJSON(out)
	case aggAll:
		return aggregateAll(ctx, tk)
	default:
		res, err := tk.agg.Aggregate(ctx, sector)
		if err != nil {
			return err
		}
		return printJSON(res)
	}
}

func aggregateAll(ctx context.Context, tk *toolkit) error {
	report, err := tk.agg.AggregateAll(ctx)
	if err != nil {
		return err
	}
	return printJSON(report)
}
